package models

// Direction один из восьми румбов, к которым сводится направление ветра.
type Direction string

const (
	DirectionN  Direction = "N"
	DirectionNE Direction = "NE"
	DirectionE  Direction = "E"
	DirectionSE Direction = "SE"
	DirectionS  Direction = "S"
	DirectionSW Direction = "SW"
	DirectionW  Direction = "W"
	DirectionNW Direction = "NW"
)

// Directions перечисляет румбы по часовой стрелке начиная с севера.
var Directions = [8]Direction{
	DirectionN,
	DirectionNE,
	DirectionE,
	DirectionSE,
	DirectionS,
	DirectionSW,
	DirectionW,
	DirectionNW,
}

func (d Direction) Valid() bool {
	for _, known := range Directions {
		if d == known {
			return true
		}
	}
	return false
}

func (d Direction) String() string {
	return string(d)
}
