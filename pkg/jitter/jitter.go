// Package jitter предоставляет утилиты для добавления случайности в интервалы отступления (backoff)
// и периодических задач, чтобы несколько экземпляров сервиса не срабатывали синхронно.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Duration возвращает продолжительность с применённым джиттером.
// Результат находится в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	return d + time.Duration(rand.Float64()*jitterFactor*float64(d))
}

// Spread возвращает продолжительность в диапазоне [d*(1-jitterFactor), d*(1+jitterFactor)].
// Используется для тикеров периодических задач.
func Spread(d time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 || d <= 0 {
		return d
	}
	if jitterFactor > 1 {
		jitterFactor = 1
	}
	delta := (rand.Float64()*2 - 1) * jitterFactor * float64(d)
	return d + time.Duration(delta)
}

// ExponentialBackoff вычисляет экспоненциальное отступление с джиттером.
// base — начальная длительность, max — верхняя граница,
// attempt — номер попытки (с нуля), jitterFactor — коэффициент джиттера.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}
	return Duration(backoff, jitterFactor)
}
