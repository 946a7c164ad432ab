package utils

import (
	"math"

	"weatherlog/internal/models"
)

// Каждый румб 45 градусов. Румб j покрывает [45j-33.75, 45j+11.25),
// сдвиг на 33.75 ставит начало северного румба в ноль.
const (
	sectorWidth  = 45.0
	sectorOffset = 33.75
)

// NormalizeBearing приводит конечный угол к [0, 360).
func NormalizeBearing(degrees float64) float64 {
	n := math.Mod(degrees, 360)
	if n < 0 {
		n += 360
	}
	// -1e-17 + 360 округляется до 360
	if n >= 360 {
		n = 0
	}
	return n
}

// ClassifyBearing сводит угол в градусах к румбу.
// Определена везде: NaN и бесконечности дают север.
func ClassifyBearing(degrees float64) models.Direction {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return models.DirectionN
	}

	shifted := NormalizeBearing(NormalizeBearing(degrees) + sectorOffset)
	idx := int(shifted / sectorWidth)
	if idx >= len(models.Directions) {
		idx = len(models.Directions) - 1
	}
	return models.Directions[idx]
}
