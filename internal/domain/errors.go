package domain

import "fmt"

// Таксономия ошибок синхронного пути. До HTTP-клиента доходят только
// ValidationError (400) и StorageError/QueryError (500) — все отказы
// нотификационного подконвейера изолируются и логируются на месте.

// ValidationError — отсутствует обязательное поле. Вина вызывающего,
// никакие сайд-эффекты к этому моменту не выполнены.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// StorageError — запись в хранилище отклонена или база недоступна.
// Фатальна для всего вызова Record: частичный аудит хуже его отсутствия.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage failure: %v", e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// QueryError — отказ пути чтения. Читатель /logs никогда не получает
// частичный результат молча.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("audit query failure: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
