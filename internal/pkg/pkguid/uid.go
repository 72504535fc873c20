package pkguid

// StringID is implemented by *UUID (run IDs) and Snowflake.Strings() (event IDs).
type StringID interface {
	Generate() string
}

// NumberID is implemented by *Snowflake.
type NumberID interface {
	Generate() int64
}

var (
	_ StringID = (*UUID)(nil)
	_ StringID = snowflakeString{}
	_ NumberID = (*Snowflake)(nil)
)
