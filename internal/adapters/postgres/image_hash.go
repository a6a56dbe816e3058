package postgres

import (
	"bytes"
	"image"
	_ "image/jpeg"

	"github.com/corona10/goimagehash"
	"github.com/mmcloughlin/geohash"
)

// geohashPrecision 7 - ячейка около 150 метров, достаточно для поиска соседних домов
const geohashPrecision = 7

// imageHash - разностный перцептивный хэш превью для поиска одного объявления на разных площадках
func imageHash(thumbnail []byte) *int64 {
	if len(thumbnail) == 0 {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(thumbnail))
	if err != nil {
		return nil
	}
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return nil
	}
	v := int64(hash.GetHash())
	return &v
}

// geohashOf - nil, если площадка не прислала координаты
func geohashOf(lat, lon float64) *string {
	if lat == 0 && lon == 0 {
		return nil
	}
	h := geohash.EncodeWithPrecision(lat, lon, geohashPrecision)
	return &h
}
