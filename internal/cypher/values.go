package cypher

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

const (
	dateLayout          = "2006-01-02"
	localTimeLayout     = "15:04:05.999999999"
	offsetTimeLayout    = "15:04:05.999999999Z07:00"
	localDateTimeLayout = "2006-01-02T15:04:05.999999999"
)

// plain converts the driver's temporal and spatial values into strings and
// maps. Other values pass through.
func plain(value any) any {
	switch v := value.(type) {
	case dbtype.Date:
		return time.Time(v).Format(dateLayout)
	case dbtype.LocalTime:
		return time.Time(v).Format(localTimeLayout)
	case dbtype.Time:
		return time.Time(v).Format(offsetTimeLayout)
	case dbtype.LocalDateTime:
		return time.Time(v).Format(localDateTimeLayout)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case dbtype.Duration:
		return v.String()
	case dbtype.Point2D:
		return map[string]any{"x": v.X, "y": v.Y, "srid": int64(v.SpatialRefId)}
	case dbtype.Point3D:
		return map[string]any{"x": v.X, "y": v.Y, "z": v.Z, "srid": int64(v.SpatialRefId)}
	}
	return value
}

// serializeLeaf converts a stored property into the JSON-safe form of the
// built-in scalar typeName. Enums and custom scalars keep their plain value.
func serializeLeaf(typeName string, value any) (any, error) {
	value = plain(value)
	if value == nil {
		return nil, nil
	}
	switch typeName {
	case "Int":
		switch v := value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("Int cannot represent non-integer value %v", v)
			}
			return int64(v), nil
		case string:
			i, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("Int cannot represent %q", v)
			}
			return i, nil
		}
	case "Float":
		switch v := value.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("Float cannot represent %q", v)
			}
			return f, nil
		}
	case "String", "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case int:
			return strconv.Itoa(v), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
	default:
		return value, nil
	}
	return nil, fmt.Errorf("%s cannot represent %T", typeName, value)
}
