package mapping

import "strings"

// Backend commands issued by the engine, grouped by module.
var Commands = map[string]string{
	"FT.SEARCH":      "SEARCH",
	"FT.AGGREGATE":   "SEARCH",
	"FT.CREATE":      "SEARCH",
	"FT.DROPINDEX":   "SEARCH",
	"FT.INFO":        "SEARCH",
	"BF.ADD":         "BLOOM",
	"BF.MADD":        "BLOOM",
	"BF.EXISTS":      "BLOOM",
	"BF.MEXISTS":     "BLOOM",
	"BF.RESERVE":     "BLOOM",
	"CF.ADD":         "CUCKOO",
	"CF.EXISTS":      "CUCKOO",
	"CF.MEXISTS":     "CUCKOO",
	"CF.RESERVE":     "CUCKOO",
	"CMS.INCRBY":     "COUNTMIN",
	"CMS.QUERY":      "COUNTMIN",
	"CMS.INITBYDIM":  "COUNTMIN",
	"CMS.INITBYPROB": "COUNTMIN",
	"DEL":            "CORE",
	"EXISTS":         "CORE",
}

// Probabilistic structure key prefixes (<prefix>:<Entity>:<field>).
const (
	BloomPrefix    = "bf"
	CuckooPrefix   = "cf"
	CountMinPrefix = "cms"
)

// Reducers maps aggregation reducer functions to the number of field
// arguments they take (-1: variable).
var Reducers = map[string]int{
	"COUNT":             0,
	"COUNT_DISTINCT":    1,
	"COUNT_DISTINCTISH": 1,
	"SUM":               1,
	"MIN":               1,
	"MAX":               1,
	"AVG":               1,
	"STDDEV":            1,
	"QUANTILE":          2,
	"TOLIST":            1,
	"FIRST_VALUE":       -1,
	"RANDOM_SAMPLE":     2,
}

// DefaultDialect is the query dialect used when none is configured.
const DefaultDialect = 2

// IsKnownCommand reports whether the engine may issue this command.
func IsKnownCommand(cmd string) bool {
	_, ok := Commands[strings.ToUpper(cmd)]
	return ok
}

// GetReducerArity returns the argument count of a reducer.
func GetReducerArity(fn string) (int, bool) {
	n, ok := Reducers[strings.ToUpper(fn)]
	return n, ok
}
