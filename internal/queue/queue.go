// Package queue реализует очередь показа анкет: одна текущая анкета
// плюс упорядоченный список ожидающих показа. Очередь гарантирует,
// что один и тот же идентификатор не встретится дважды ни в списке
// ожидания, ни как повтор текущей анкеты, и сохраняет порядок подачи
// (FIFO без переранжирования).
//
// Состояние очереди приватно для одной пользовательской сессии
// и не разделяется между клиентами.
package queue

import "github.com/magabrotheeeer/engagement-engine/internal/models"

// Queue хранит текущую анкету и список ожидающих показа.
// Нулевое значение готово к использованию: очередь пуста.
type Queue struct {
	current *models.Profile
	pending []models.Profile
	seen    map[string]struct{}
}

// New возвращает пустую очередь.
func New() *Queue {
	return &Queue{seen: make(map[string]struct{})}
}

// Current возвращает текущую анкету или nil, если очередь исчерпана.
func (q *Queue) Current() *models.Profile {
	return q.current
}

// Len возвращает количество анкет в списке ожидания.
func (q *Queue) Len() int {
	return len(q.pending)
}

// ReplaceAll полностью заменяет состояние очереди: первая анкета
// становится текущей, остальные — списком ожидания в исходном порядке.
// Дубликаты идентификаторов внутри items отбрасываются, остаётся
// первое вхождение. Пустой items опустошает очередь.
func (q *Queue) ReplaceAll(items []models.Profile) {
	q.current = nil
	q.pending = q.pending[:0]
	q.seen = make(map[string]struct{}, len(items))
	q.Merge(items)
}

// Merge вливает новую партию анкет, не трогая текущую анкету и
// относительный порядок уже ожидающих. Входящая партия сначала
// дедуплицируется сама с собой, затем отбрасываются анкеты, чьи
// идентификаторы уже есть в очереди; уцелевшие добавляются в хвост.
// Если очередь была исчерпана, первая уцелевшая анкета становится текущей.
func (q *Queue) Merge(items []models.Profile) {
	if q.seen == nil {
		q.seen = make(map[string]struct{}, len(items))
	}
	for _, item := range items {
		if _, ok := q.seen[item.ID]; ok {
			continue
		}
		q.seen[item.ID] = struct{}{}
		if q.current == nil {
			cur := item
			q.current = &cur
			continue
		}
		q.pending = append(q.pending, item)
	}
}

// Advance выбрасывает текущую анкету и продвигает голову списка
// ожидания на её место. При пустой очереди ничего не происходит;
// при пустом списке ожидания текущая анкета становится пустой —
// сигнал вызывающему, что пора запросить новую партию.
func (q *Queue) Advance() {
	if q.current == nil {
		return
	}
	delete(q.seen, q.current.ID)
	if len(q.pending) == 0 {
		q.current = nil
		return
	}
	head := q.pending[0]
	q.current = &head
	q.pending = q.pending[1:]
}
