package models

import (
	"time"

	"gorm.io/datatypes"
)

// Reading одно нормализованное показание погоды. Строки только добавляются.
type Reading struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Temperature       float64        `gorm:"not null" json:"temperature"`
	WindSpeed         float64        `gorm:"not null" json:"wind_speed"`
	WindDirection     Direction      `gorm:"type:varchar(2);not null" json:"wind_direction" validate:"required,oneof=N NE E SE S SW W NW"`
	Pressure          float64        `gorm:"not null" json:"pressure"`
	PrecipitationRain float64        `gorm:"not null" json:"precipitation_rain"`
	PrecipitationSnow float64        `gorm:"not null" json:"precipitation_snow"`
	Timestamp         time.Time      `gorm:"not null;index:idx_weather_readings_timestamp,sort:desc" json:"timestamp" validate:"required"`
	SourcePayload     datatypes.JSON `gorm:"not null" json:"-"`
}

func (Reading) TableName() string {
	return "weather_readings"
}

// CurrentConditions декодированный блок "current" источника погоды.
// Поля указатели: отсутствующее в ответе значение остается nil.
type CurrentConditions struct {
	Temperature     *float64 `validate:"required"`
	WindSpeed       *float64 `validate:"required"`
	WindBearing     *float64 `validate:"required"`
	SurfacePressure *float64 `validate:"required"`
	Rain            *float64 `validate:"required"`
	Snowfall        *float64 `validate:"required"`

	ObservedAt time.Time
	Raw        []byte
}
