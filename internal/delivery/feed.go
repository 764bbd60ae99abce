package delivery

import (
	"sort"

	"github.com/google/uuid"
	"skill_swap/internal/domain"
)

// Feed сводит два источника (push-события и периодический poll) в одно
// консистентное представление лога сообщений. Решающий инвариант —
// дедупликация по id: push-канал может доставлять событие повторно.
type Feed struct {
	messages  []*domain.Message
	confirmed map[uuid.UUID]bool // id -> подтверждено ли сервером
}

func NewFeed() *Feed {
	return &Feed{
		confirmed: make(map[uuid.UUID]bool),
	}
}

// Apply добавляет сообщение из push-события. Повторная доставка того же id —
// no-op. Возвращает true, если представление изменилось.
func (f *Feed) Apply(message *domain.Message) bool {
	if _, ok := f.confirmed[message.ID]; ok {
		f.confirmed[message.ID] = true
		return false
	}

	f.confirmed[message.ID] = true
	f.insert(message)
	return true
}

// ApplyLocal добавляет оптимистично отправленное сообщение, еще не
// подтвержденное сервером. Оно переживает reconcile до тех пор, пока
// его id не появится в результате poll-а.
func (f *Feed) ApplyLocal(message *domain.Message) bool {
	if _, ok := f.confirmed[message.ID]; ok {
		return false
	}

	f.confirmed[message.ID] = false
	f.insert(message)
	return true
}

// Reconcile сверяет представление с результатом poll-а. Снимок — хвостовое
// окно лога: подтвержденные сообщения старше начала окна считаются
// вытесненными историей и сохраняются как есть. Устаревший снимок, в котором
// внутри окна не хватает уже подтвержденного сообщения, отбрасывается —
// откат состояния запрещен.
func (f *Feed) Reconcile(fetched []*domain.Message) bool {
	// Пустой снимок ничего не подтверждает и ничего не отменяет
	if len(fetched) == 0 {
		return false
	}

	fetchedIDs := make(map[uuid.UUID]struct{}, len(fetched))
	for _, m := range fetched {
		fetchedIDs[m.ID] = struct{}{}
	}

	// Начало окна: все подтвержденное раньше него окном не покрывается
	windowStart := fetched[0]
	var retained []*domain.Message
	for _, m := range f.messages {
		if !f.confirmed[m.ID] {
			continue
		}
		if _, ok := fetchedIDs[m.ID]; ok {
			continue
		}
		if m.Less(windowStart) {
			retained = append(retained, m)
			continue
		}
		// Подтвержденное сообщение внутри окна пропало из снимка
		return false
	}

	if f.sameWindow(fetched, windowStart) {
		// Сообщения могли подтвердиться без изменения окна
		changed := false
		for _, m := range fetched {
			if !f.confirmed[m.ID] {
				f.confirmed[m.ID] = true
				changed = true
			}
		}
		return changed
	}

	// Неподтвержденные локальные сообщения, которых еще нет в снимке
	var pending []*domain.Message
	for _, m := range f.messages {
		if f.confirmed[m.ID] {
			continue
		}
		if _, ok := fetchedIDs[m.ID]; !ok {
			pending = append(pending, m)
		}
	}

	f.messages = nil
	f.confirmed = make(map[uuid.UUID]bool, len(retained)+len(fetched)+len(pending))
	for _, m := range retained {
		f.confirmed[m.ID] = true
		f.messages = append(f.messages, m)
	}
	for _, m := range fetched {
		f.confirmed[m.ID] = true
		f.messages = append(f.messages, m)
	}
	sortMessages(f.messages)
	for _, m := range pending {
		f.confirmed[m.ID] = false
		f.insert(m)
	}

	return true
}

// Messages возвращает текущее представление в порядке (created_at, id)
func (f *Feed) Messages() []*domain.Message {
	out := make([]*domain.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

func (f *Feed) Len() int {
	return len(f.messages)
}

func (f *Feed) insert(message *domain.Message) {
	idx := sort.Search(len(f.messages), func(i int) bool {
		return message.Less(f.messages[i])
	})
	f.messages = append(f.messages, nil)
	copy(f.messages[idx+1:], f.messages[idx:])
	f.messages[idx] = message
}

func (f *Feed) sameWindow(fetched []*domain.Message, windowStart *domain.Message) bool {
	// Сравниваем только подтвержденную часть представления внутри окна
	var current []*domain.Message
	for _, m := range f.messages {
		if f.confirmed[m.ID] && !m.Less(windowStart) {
			current = append(current, m)
		}
	}

	if len(current) != len(fetched) {
		return false
	}
	return current[len(current)-1].ID == fetched[len(fetched)-1].ID
}

func sortMessages(messages []*domain.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Less(messages[j])
	})
}
