package domain

import "time"

// EntityFeature — единственный вид сущности, который тянет за собой
// нотификационный конвейер (очередь + письма подписчикам компании).
const EntityFeature = "feature"

// AuditRecord — неизменяемая запись аудита. После вставки в хранилище
// никогда не редактируется и не удаляется этим сервисом.
type AuditRecord struct {
	ID        string    `json:"id"`        // UUID, присваивается рекордером
	Action    string    `json:"action"`    // Что сделали ("update", "delete", ...)
	Entity    string    `json:"entity"`    // Над чем ("feature", "project", ...)
	EntityID  string    `json:"entityId"`  // Ключ сущности (для feature — её имя)
	Details   any       `json:"details"`   // Произвольный payload, хранится как JSONB
	UserID    string    `json:"userId"`    // Действующий принципал
	Timestamp time.Time `json:"timestamp"` // UTC, проставляется при записи, не клиентом
}

// AuditInput — то, что присылает клиент в POST /log.
// Все пять полей обязательны; timestamp клиент задать не может.
type AuditInput struct {
	Action   string `json:"action"`
	Entity   string `json:"entity"`
	EntityID string `json:"entityId"`
	Details  any    `json:"details"`
	UserID   string `json:"userId"`
}

// Validate проверяет наличие всех обязательных полей ДО любых сайд-эффектов.
// Отсутствие поля — ошибка вызывающего, а не хранилища.
func (in AuditInput) Validate() error {
	switch {
	case in.Action == "":
		return &ValidationError{Field: "action"}
	case in.Entity == "":
		return &ValidationError{Field: "entity"}
	case in.EntityID == "":
		return &ValidationError{Field: "entityId"}
	case emptyDetails(in.Details):
		return &ValidationError{Field: "details"}
	case in.UserID == "":
		return &ValidationError{Field: "userId"}
	}
	return nil
}

// emptyDetails бракует не только отсутствующий details, но и пустой:
// "", {}, [], 0 и false — всё это не несет полезной нагрузки и не должно
// попадать ни в хранилище, ни в очередь. Ветки покрывают формы, которые
// выдает encoding/json для произвольного payload.
func emptyDetails(v any) bool {
	switch d := v.(type) {
	case nil:
		return true
	case string:
		return d == ""
	case map[string]any:
		return len(d) == 0
	case []any:
		return len(d) == 0
	case float64:
		return d == 0
	case bool:
		return !d
	}
	return false
}

// AuditFilter — необязательные, независимо комбинируемые фильтры чтения.
// Диапазон дат применяется только целиком (обе границы).
type AuditFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Action    string
	UserID    string
}

// ActionStat — строка сводного отчета по действиям (GET /v1/stats).
type ActionStat struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}
