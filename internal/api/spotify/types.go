package spotify

// Typed response schemas for the Web API endpoints the backfill touches.
// Downstream matching code never sees raw JSON.

// ArtistRef is the compact artist object embedded in albums and search hits.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is a full album object. Search results carry a simplified version
// without genres; those decode with Genres empty.
type Album struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Genres     []string    `json:"genres"`
	Artists    []ArtistRef `json:"artists"`
	Popularity int         `json:"popularity"`
}

// Artist is a full artist object.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
}

type albumsPage struct {
	Items []Album `json:"items"`
}

type artistsPage struct {
	Items []Artist `json:"items"`
}

type searchResponse struct {
	Albums  albumsPage  `json:"albums"`
	Artists artistsPage `json:"artists"`
}
