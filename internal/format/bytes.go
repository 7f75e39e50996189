package format

import (
	"errors"
	"strconv"
)

var ErrNegativeSize = errors.New("byte count must not be negative")

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatBytes renders a byte count with 1024-based units, e.g. "1.5 KB".
// The optional argument is the number of decimals (default 2). Trailing zeros are dropped.
func FormatBytes(bytes int64, decimals ...int) (string, error) {
	if bytes < 0 {
		return "", ErrNegativeSize
	}

	if bytes == 0 {
		return "0 Bytes", nil
	}

	dm := 2
	if len(decimals) > 0 {
		dm = max(decimals[0], 0)
	}

	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}

	rounded, err := strconv.ParseFloat(strconv.FormatFloat(value, 'f', dm, 64), 64)
	if err != nil {
		return "", err
	}

	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[unit], nil
}
