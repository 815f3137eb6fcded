package model

import (
	"fmt"
	"strings"
)

// Basis единица, в которой оценивается материал.
type Basis string

const (
	BasisMassSmall Basis = "mass-small"
	BasisMassLarge Basis = "mass-large"
	BasisVolume    Basis = "volume"
)

// Bases все допустимые значения в порядке отображения.
var Bases = []Basis{BasisMassSmall, BasisMassLarge, BasisVolume}

var basisUnits = map[Basis]string{
	BasisMassSmall: "kg",
	BasisMassLarge: "t",
	BasisVolume:    "m³",
}

var basisLabels = map[Basis]string{
	BasisMassSmall: "pro kg",
	BasisMassLarge: "pro t",
	BasisVolume:    "pro m³",
}

// ParseBasis разбирает значение базиса; принимает и подписи из старых файлов ("pro kg").
func ParseBasis(s string) (Basis, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, b := range Bases {
		if v == string(b) || v == basisLabels[b] || v == basisUnits[b] {
			return b, nil
		}
	}
	if v == "pro m3" || v == "m3" {
		return BasisVolume, nil
	}
	return "", fmt.Errorf("unknown basis %q", s)
}

// Valid проверяет, что значение входит в закрытый набор.
func (b Basis) Valid() bool {
	_, ok := basisUnits[b]
	return ok
}

// Unit единица измерения чистого количества.
func (b Basis) Unit() string { return basisUnits[b] }

// Label подпись для документа.
func (b Basis) Label() string { return basisLabels[b] }

// IsMass true для базисов, где количество считается по взвешиванию.
func (b Basis) IsMass() bool {
	return b == BasisMassSmall || b == BasisMassLarge
}
