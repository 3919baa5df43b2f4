package api

// Cache-Control header values for served image files. Renditions carry
// random names, so once written they never change.
const (
	CacheOneWeek = "public, max-age=604800"
	CacheOneDay  = "public, max-age=86400"
)
