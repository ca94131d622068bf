package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных сервиса в Redis
	RedisNamespace = "ftoggle"
)

// Ключи кэша (значения с TTL)
const (
	// RedisKeyCompanyCachePrefix — кэш разрешения userId -> companyId.
	// Короткий TTL: директория — источник правды, кэш лишь снимает нагрузку.
	RedisKeyCompanyCachePrefix = RedisNamespace + ":directory:company:"

	// RedisKeyStatsCachePrefix — кэш сводного отчета /v1/stats.
	RedisKeyStatsCachePrefix = RedisNamespace + ":stats:actions:"
)

// CompanyCacheKey Генератор ключа кэша компании для конкретного пользователя
func CompanyCacheKey(userID string) string {
	return RedisKeyCompanyCachePrefix + userID
}

// StatsCacheKey Генератор ключа отчета для диапазона дат ("all", если без фильтра)
func StatsCacheKey(rangeTag string) string {
	return fmt.Sprintf("%s%s", RedisKeyStatsCachePrefix, rangeTag)
}
