package location

import (
	"context"
	"log/slog"
	"strings"

	"github.com/maiimostafaa/voyager-sub001/internal/geocode"
	"github.com/maiimostafaa/voyager-sub001/internal/post"
	"github.com/maiimostafaa/voyager-sub001/internal/shared/geo"

	"golang.org/x/sync/errgroup"
)

// Mode decides when the geocoding phase runs.
type Mode int

const (
	// Always geocodes every query.
	Always Mode = iota
	// WhenInsufficient geocodes only when name matching found fewer than
	// Options.MinNameResults posts.
	WhenInsufficient
)

func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "insufficient", "when_insufficient":
		return WhenInsufficient
	default:
		return Always
	}
}

const (
	MatchedByName      = "name"
	MatchedByCity      = "city"
	MatchedByProximity = "proximity"
)

type MatchedPost struct {
	post.Post
	Tags      []string `json:"tags"`
	MatchedBy string   `json:"matched_by"`
}

type Options struct {
	Mode           Mode
	MinNameResults int
	// ProximityDeg bounds |Δlat| and |Δlon| when a post cannot be reverse
	// geocoded.
	ProximityDeg float64
	Concurrency  int
}

type Candidates interface {
	PostsByAuthors(ctx context.Context, authorIDs []string) ([]post.Post, error)
	Tags(ctx context.Context, postIDs []string) ([]post.Tag, error)
}

type FriendResolver interface {
	ResolveFriendIDs(ctx context.Context, viewerID string) []string
}

type Matcher struct {
	posts    Candidates
	friends  FriendResolver
	geocoder geocode.Geocoder
	opts     Options
	log      *slog.Logger
}

func NewMatcher(posts Candidates, friends FriendResolver, geocoder geocode.Geocoder, opts Options, log *slog.Logger) *Matcher {
	if opts.ProximityDeg <= 0 {
		opts.ProximityDeg = 0.5
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{posts: posts, friends: friends, geocoder: geocoder, opts: opts, log: log}
}

// FindPostsNearLocation matches query against the posts visible to viewerID:
// their own and their friends'.
func (m *Matcher) FindPostsNearLocation(ctx context.Context, viewerID, query string) []MatchedPost {
	query = strings.TrimSpace(query)
	if query == "" {
		return []MatchedPost{}
	}

	authors := append([]string{viewerID}, m.friends.ResolveFriendIDs(ctx, viewerID)...)
	candidates, err := m.posts.PostsByAuthors(ctx, authors)
	if err != nil {
		m.log.WarnContext(ctx, "location candidates query failed",
			"viewerID", viewerID,
			"error", err)
		return []MatchedPost{}
	}
	return m.Match(ctx, query, candidates)
}

// Match returns the name matches followed by the city or proximity matches
// among candidates, each post at most once. Geocoding failures reduce the
// result to name matches.
func (m *Matcher) Match(ctx context.Context, query string, candidates []post.Post) []MatchedPost {
	seen := make(map[string]struct{}, len(candidates))
	matched := []MatchedPost{}
	var rest []post.Post
	for _, p := range candidates {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		if NameMatches(query, p.LocationName) {
			matched = append(matched, MatchedPost{Post: p, MatchedBy: MatchedByName})
		} else {
			rest = append(rest, p)
		}
	}

	if len(rest) > 0 && m.wantsCityPhase(len(matched)) {
		city, point, err := geocode.ForwardCity(ctx, m.geocoder, query)
		if err != nil {
			m.log.WarnContext(ctx, "forward geocode failed, using name matches only",
				"query", query,
				"error", err)
		} else {
			matched = append(matched, m.cityMatches(ctx, city, point, rest)...)
		}
	}

	m.attachTags(ctx, matched)
	return matched
}

func (m *Matcher) wantsCityPhase(nameMatches int) bool {
	return m.opts.Mode == Always || nameMatches < m.opts.MinNameResults
}

// cityMatches reverse geocodes every post with bounded concurrency. One call
// per post per query; wrap the geocoder with geocode.WithCache to bound it.
func (m *Matcher) cityMatches(ctx context.Context, city string, target geo.Point, posts []post.Post) []MatchedPost {
	verdicts := make([]string, len(posts))

	var g errgroup.Group
	g.SetLimit(m.opts.Concurrency)
	for i, p := range posts {
		g.Go(func() error {
			verdicts[i] = m.classify(ctx, city, target, p)
			return nil
		})
	}
	_ = g.Wait()

	var out []MatchedPost
	for i, p := range posts {
		if verdicts[i] != "" {
			out = append(out, MatchedPost{Post: p, MatchedBy: verdicts[i]})
		}
	}
	return out
}

func (m *Matcher) classify(ctx context.Context, city string, target geo.Point, p post.Post) string {
	point := geo.Point{Lat: p.Latitude, Lng: p.Longitude}
	addr, err := m.geocoder.Reverse(ctx, point)
	if err != nil {
		m.log.DebugContext(ctx, "reverse geocode failed, using proximity",
			"postID", p.ID,
			"error", err)
		if geo.WithinBox(point, target, m.opts.ProximityDeg) {
			return MatchedByProximity
		}
		return ""
	}
	if postCity := addr.CityName(); postCity != "" && strings.EqualFold(postCity, city) {
		return MatchedByCity
	}
	return ""
}

func (m *Matcher) attachTags(ctx context.Context, matched []MatchedPost) {
	ids := make([]string, 0, len(matched))
	for _, mp := range matched {
		ids = append(ids, mp.ID)
	}
	tags, err := m.posts.Tags(ctx, ids)
	if err != nil {
		m.log.WarnContext(ctx, "location tags lookup failed", "error", err)
	}
	byPost := make(map[string][]string, len(matched))
	for _, t := range tags {
		byPost[t.PostID] = append(byPost[t.PostID], t.Name)
	}
	for i := range matched {
		matched[i].Tags = byPost[matched[i].ID]
		if matched[i].Tags == nil {
			matched[i].Tags = []string{}
		}
	}
}

// NameMatches is the loose place-name comparison: case-insensitive, trimmed,
// equal or either one containing the other.
func NameMatches(query, locationName string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	n := strings.ToLower(strings.TrimSpace(locationName))
	if q == "" || n == "" {
		return false
	}
	return q == n || strings.Contains(n, q) || strings.Contains(q, n)
}
