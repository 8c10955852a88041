package models

import "time"

// UsageRow отражает строку таблицы usage_limits: тариф пользователя,
// счётчики дневных квот и отметку последнего сброса.
// Поле MessagesLeft хранит остаток (кошелёк), StoriesPosted и
// CommentsMade — потраченное количество (счётчики).
type UsageRow struct {
	Username      string    // Имя пользователя (первичный ключ)
	Tier          string    // Метка тарифа, нормализуется при загрузке
	MessagesLeft  int       // Остаток сообщений на сегодня
	StoriesPosted int       // Историй опубликовано сегодня
	CommentsMade  int       // Комментариев оставлено сегодня
	LastResetAt   time.Time // Время последнего дневного сброса
	UpdatedAt     time.Time // Время последнего изменения строки
}

// ActionUsage описывает состояние одной квотируемой операции
// во внешнем представлении: лимит тарифа, потрачено и остаток.
// Для безлимитных операций Limit и Remaining равны -1.
type ActionUsage struct {
	Limit     int `json:"limit"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// UsageSnapshot — объединённое представление квот пользователя,
// отдаваемое наружу: тариф, состояние каждой операции (включая
// счётчик архива, который живёт отдельно от дневного цикла)
// и отметка последнего сброса.
type UsageSnapshot struct {
	Username    string                 `json:"username"`
	Tier        string                 `json:"tier"`
	Actions     map[string]ActionUsage `json:"actions"`
	LastResetAt time.Time              `json:"last_reset_at"`
}
