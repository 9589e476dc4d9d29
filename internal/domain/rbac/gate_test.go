package rbac

import "testing"

func TestIsAllowed(t *testing.T) {
	levels := map[string]AccessLevel{
		"tasks":   LevelEdit,
		"home":    LevelReadOnly,
		"reports": LevelNone,
	}

	tests := []struct {
		name     string
		code     string
		required []AccessLevel
		want     bool
	}{
		{name: "edit проходит по умолчанию", code: "tasks", want: true},
		{name: "readonly проходит по умолчанию", code: "home", want: true},
		{name: "код без учёта регистра", code: "TASKS", want: true},
		{name: "none отклоняется", code: "reports", want: false},
		{name: "неизвестный код", code: "billing", want: false},
		{name: "требуется edit, есть readonly", code: "home", required: []AccessLevel{LevelEdit}, want: false},
		{name: "требуется edit, есть edit", code: "tasks", required: []AccessLevel{LevelEdit}, want: true},
		{name: "требуется none не открывает доступ", code: "reports", required: []AccessLevel{LevelNone}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAllowed(levels, tt.code, tt.required...); got != tt.want {
				t.Errorf("IsAllowed(%q, %v) = %v, хотели %v", tt.code, tt.required, got, tt.want)
			}
		})
	}
}

func TestIsAllowed_NilMap(t *testing.T) {
	if IsAllowed(nil, "tasks") {
		t.Error("nil-карта должна давать false")
	}
}
