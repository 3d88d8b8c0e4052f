package navigation

import "net/url"

// Location is the decomposed current URL. State is always nil: no
// client-side history state is carried between navigations.
type Location struct {
	Pathname string `json:"pathname"`
	Search   string `json:"search"`
	Hash     string `json:"hash"`
	State    any    `json:"state"`
	Key      string `json:"key"`
}

const defaultLocationKey = "default"

func LocationOf(u *url.URL) Location {
	loc := Location{Pathname: u.EscapedPath(), Key: defaultLocationKey}
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	if u.RawQuery != "" {
		loc.Search = "?" + u.RawQuery
	}
	if u.Fragment != "" {
		loc.Hash = "#" + u.EscapedFragment()
	}
	return loc
}

// ParseLocation parses a raw path such as "/blog/x?y=1#top".
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, err
	}
	return LocationOf(u), nil
}
