package relation

import "math"

const (
	minJoinTableColumns = 2
	minJoinTableFKs     = 2
	joinTableFKRatio    = 0.6
)

// IsJoinTable reports whether a table with total columns and fkCount
// foreign key columns is a many-to-many association table. Foreign keys must
// make up at least 60% of the columns, and there must be at least two.
func IsJoinTable(total, fkCount int) bool {
	if total < minJoinTableColumns || fkCount < minJoinTableFKs {
		return false
	}
	return fkCount >= int(math.Ceil(float64(total)*joinTableFKRatio))
}
