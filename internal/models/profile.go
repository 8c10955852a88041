// Package models содержит доменные структуры движка вовлечённости:
// анкеты пользователей (кандидаты для ленты), снимок квот
// и вспомогательные типы для работы с данными из внешних источников.
package models

import "time"

// Profile представляет анкету-кандидата, показываемую в ленте.
// Идентичность анкеты определяется только полем ID — все остальные
// поля являются отображаемыми атрибутами и не участвуют в дедупликации.
type Profile struct {
	ID          string    // Уникальный идентификатор анкеты (UUID)
	Username    string    // Имя пользователя-владельца анкеты
	DisplayName string    // Отображаемое имя
	Bio         string    // Короткое описание
	Age         int       // Возраст
	Gender      string    // Пол
	City        string    // Город
	PhotoURL    string    // Ссылка на основное фото
	IsActive    bool      // Анкета доступна для показа
	CreatedAt   time.Time // Дата создания анкеты
}

// FilterCriteria описывает фильтры выборки кандидатов для ленты.
// Нулевые значения означают отсутствие фильтра по данному полю.
type FilterCriteria struct {
	Gender string `json:"gender,omitempty"`
	City   string `json:"city,omitempty"`
	AgeMin int    `json:"age_min,omitempty" validate:"omitempty,gte=18"`
	AgeMax int    `json:"age_max,omitempty" validate:"omitempty,gte=18"`
}

// SwipeEvent публикуется в очередь телеметрии при каждом продвижении ленты.
// Метка действия на этом уровне информационная: поведение продвижения
// от неё не зависит, но она сохраняется для последующей аналитики.
type SwipeEvent struct {
	Username  string    `json:"username"`
	ProfileID string    `json:"profile_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}
