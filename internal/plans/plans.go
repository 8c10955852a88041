// Package plans содержит конфигурацию тарифных планов: закрытый перечень
// тарифов, таблицу лимитов квотируемых операций и флаги возможностей.
// Таблица статична и является единственным источником правды о лимитах —
// хранилище значений лимитов не знает.
package plans

// Tier — метка тарифного плана из закрытого перечня.
type Tier string

const (
	// TierFree — базовый бесплатный тариф, значение по умолчанию.
	TierFree Tier = "free"
	// TierPremium — средний платный тариф.
	TierPremium Tier = "premium"
	// TierPlatinum — максимальный тариф.
	TierPlatinum Tier = "platinum"
)

// Unlimited — сигнальное значение лимита «без ограничений».
const Unlimited = -1

// Ключи квотируемых операций.
const (
	ActionMessages = "messages" // Отправка сообщений в чате
	ActionStories  = "stories"  // Публикация историй
	ActionComments = "comments" // Комментарии к историям
	ActionArchives = "archives" // Архив анкет (долгоживущий счётчик)
)

// Semantics определяет, как хранится значение квоты:
// кошелёк хранит остаток и при сбросе пополняется до лимита,
// счётчик хранит потраченное и при сбросе обнуляется.
type Semantics int

const (
	// SemanticsCounter — поле хранит потраченное количество.
	SemanticsCounter Semantics = iota
	// SemanticsWallet — поле хранит остаток допустимого.
	SemanticsWallet
)

// LimitSet — набор лимитов и флагов возможностей одного тарифа.
type LimitSet struct {
	Caps      map[string]int // Лимит на операцию, Unlimited = без ограничений
	SeeLikes  bool           // Видно, кто лайкнул анкету
	Rewind    bool           // Возврат последнего свайпа
	Incognito bool           // Скрытый режим просмотра
}

var limitTable = map[Tier]LimitSet{
	TierFree: {
		Caps: map[string]int{
			ActionMessages: 20,
			ActionStories:  1,
			ActionComments: 5,
			ActionArchives: 10,
		},
	},
	TierPremium: {
		Caps: map[string]int{
			ActionMessages: 100,
			ActionStories:  5,
			ActionComments: 30,
			ActionArchives: 100,
		},
		SeeLikes: true,
		Rewind:   true,
	},
	TierPlatinum: {
		Caps: map[string]int{
			ActionMessages: Unlimited,
			ActionStories:  20,
			ActionComments: Unlimited,
			ActionArchives: Unlimited,
		},
		SeeLikes:  true,
		Rewind:    true,
		Incognito: true,
	},
}

var actionSemantics = map[string]Semantics{
	ActionMessages: SemanticsWallet,
	ActionStories:  SemanticsCounter,
	ActionComments: SemanticsCounter,
	ActionArchives: SemanticsCounter,
}

// Normalize проверяет метку тарифа по закрытому перечню.
// Неизвестная или пустая метка приводится к минимальному тарифу,
// чтобы движок никогда не работал с неопределённым набором лимитов.
func Normalize(label string) Tier {
	switch Tier(label) {
	case TierFree, TierPremium, TierPlatinum:
		return Tier(label)
	default:
		return TierFree
	}
}

// Limits возвращает набор лимитов тарифа. Метка предварительно
// нормализуется, так что результат определён для любого входа.
func Limits(label string) LimitSet {
	return limitTable[Normalize(label)]
}

// Cap возвращает лимит тарифа на операцию.
// Для неизвестной операции возвращается 0 — операция запрещена.
func Cap(tier Tier, action string) int {
	cap, ok := limitTable[tier].Caps[action]
	if !ok {
		return 0
	}
	return cap
}

// SemanticsOf возвращает семантику хранения квоты операции.
// Неизвестные операции считаются счётчиками.
func SemanticsOf(action string) Semantics {
	s, ok := actionSemantics[action]
	if !ok {
		return SemanticsCounter
	}
	return s
}

// Resettable сообщает, участвует ли операция в дневном сбросе.
// Счётчик архива долгоживущий и сбросу не подлежит.
func Resettable(action string) bool {
	return action != ActionArchives
}

// Actions возвращает ключи всех квотируемых операций в стабильном порядке.
func Actions() []string {
	return []string{ActionMessages, ActionStories, ActionComments, ActionArchives}
}
