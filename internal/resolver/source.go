package resolver

// Source identifies which stage of the fallback chain produced a genre
// set. The chain is ordered; the first stage to yield a non-empty set
// terminates resolution for that album.
type Source int

const (
	SourceNone Source = iota
	SourceArtistCache
	SourceSpotifyAlbum
	SourceSpotifyNameSearch
	SourceLastfmAlbumTags
	SourceLastfmArtistTags
	SourceMusicBrainzArtistTags
)

func (s Source) String() string {
	switch s {
	case SourceArtistCache:
		return "artist_cache"
	case SourceSpotifyAlbum:
		return "spotify_album"
	case SourceSpotifyNameSearch:
		return "spotify_name_search"
	case SourceLastfmAlbumTags:
		return "lastfm_album_tags"
	case SourceLastfmArtistTags:
		return "lastfm_artist_tags"
	case SourceMusicBrainzArtistTags:
		return "musicbrainz_artist_tags"
	default:
		return "none"
	}
}

// Sources lists every terminal source in fallback order, for per-source
// counter reporting.
func Sources() []Source {
	return []Source{
		SourceArtistCache,
		SourceSpotifyAlbum,
		SourceSpotifyNameSearch,
		SourceLastfmAlbumTags,
		SourceLastfmArtistTags,
		SourceMusicBrainzArtistTags,
	}
}

// FailureReason classifies why an album could not be resolved.
type FailureReason string

const (
	ReasonNone                  FailureReason = ""
	ReasonNoGenresFromSources   FailureReason = "no_genres_from_all_sources"
	ReasonNoSpotifyIDNoExternal FailureReason = "no_spotify_id_and_no_external_genres"
	ReasonFetchOrUpdateFailed   FailureReason = "genre_fetch_or_update_failed"
)
