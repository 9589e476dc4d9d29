package model

// Module — адресуемый модуль системы.
// Идентичность (ID, Code) неизменна после того, как на модуль сослались права.
type Module struct {
	ID int `json:"id"`
	// Code — уникальный ключ модуля (сравнение без учёта регистра)
	Code string `json:"code"`
	// Name — отображаемое имя
	Name string `json:"name"`
	// IsActive — неактивные модули исключаются из эффективного представления,
	// но их строки прав не удаляются
	IsActive bool `json:"isActive"`
}
