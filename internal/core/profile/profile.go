// Package profile defines the domain entities the generation pipeline reads
// and writes: the GitHub profile record, the synthesized card, rendered
// captures, stored assets and the publication-eligibility report.
package profile

import "time"

// Profile is the persisted record for one GitHub login.
type Profile struct {
	Login     string    `json:"login"`
	Name      string    `json:"name,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Company   string    `json:"company,omitempty"`
	Location  string    `json:"location,omitempty"`
	Blog      string    `json:"blog,omitempty"`
	Followers int       `json:"followers"`
	Following int       `json:"following"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`

	Card        *Card        `json:"card,omitempty"`
	Eligibility *Eligibility `json:"eligibility,omitempty"`
	Assets      []Asset      `json:"assets,omitempty"`

	// Pipeline status marker, written once per run by the orchestrator.
	PipelineStatus string    `json:"pipeline_status,omitempty"`
	PipelineError  string    `json:"pipeline_error,omitempty"`
	PipelineRunAt  time.Time `json:"pipeline_run_at,omitempty"`
}

// PersistableFields are the profile fields a resync may overwrite. The
// preserve_profile_fields override names entries of this set.
var PersistableFields = []string{
	"name", "bio", "company", "location", "blog",
	"followers", "following", "avatar_url",
}

// Card is the gamified stat card synthesized for a profile.
type Card struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	Attack       int       `json:"attack"`
	Defense      int       `json:"defense"`
	Speed        int       `json:"speed"`
	Tags         []string  `json:"tags"`
	Archetype    string    `json:"archetype"`
	SpiritAnimal string    `json:"spirit_animal"`
	FlavorText   string    `json:"flavor_text"`
	Generator    string    `json:"generator"` // "gemini" or "heuristic"
	GeneratedAt  time.Time `json:"generated_at"`
}

// Repo is the subset of repository data the pipeline consumes.
type Repo struct {
	Name     string    `json:"name"`
	Language string    `json:"language,omitempty"`
	Stars    int       `json:"stars"`
	Fork     bool      `json:"fork"`
	Archived bool      `json:"archived"`
	PushedAt time.Time `json:"pushed_at,omitempty"`
}

// GithubPayload is the raw fetch result: user fields plus owned repos and
// recent public activity. It lives only on the pipeline context.
type GithubPayload struct {
	Login        string    `json:"login"`
	Name         string    `json:"name,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Company      string    `json:"company,omitempty"`
	Location     string    `json:"location,omitempty"`
	Blog         string    `json:"blog,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Followers    int       `json:"followers"`
	Following    int       `json:"following"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	Repos        []Repo    `json:"repos,omitempty"`
	RecentEvents int       `json:"recent_events"`
	HasReadme    bool      `json:"has_readme"`
	PinnedRepos  int       `json:"pinned_repos"`
	FetchedWith  string    `json:"fetched_with,omitempty"` // "user_token" or "app_token"
}

// Languages returns the distinct non-empty repo languages.
func (p *GithubPayload) Languages() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range p.Repos {
		if r.Language == "" || seen[r.Language] {
			continue
		}
		seen[r.Language] = true
		out = append(out, r.Language)
	}
	return out
}

// Capture is one rendered screenshot variant.
type Capture struct {
	Variant   string `json:"variant"`
	LocalPath string `json:"local_path"`
	PublicURL string `json:"public_url,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	MimeType  string `json:"mime_type"`
	Renderer  string `json:"renderer,omitempty"` // "browser" or "native"
}

// Optimization is the result of re-encoding one capture.
type Optimization struct {
	Variant   string `json:"variant"`
	Path      string `json:"path"`
	BytesIn   int64  `json:"bytes_in"`
	BytesOut  int64  `json:"bytes_out"`
	Encoder   string `json:"encoder"` // "native" or "cli"
	MimeType  string `json:"mime_type"`
	Reencoded bool   `json:"reencoded"`
}

// Asset is one logical stored artifact per (login, kind): the avatar or a
// capture variant. Upserts replace the previous record for the same kind.
type Asset struct {
	Kind        string    `json:"kind"`
	LocalPath   string    `json:"local_path,omitempty"`
	PublicURL   string    `json:"public_url,omitempty"`
	MimeType    string    `json:"mime_type,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Scrape holds the optional scraped personal-site metadata.
type Scrape struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Signal is one eligibility criterion with its rationale.
type Signal struct {
	Name   string `json:"name"`
	Met    bool   `json:"met"`
	Detail string `json:"detail"`
}

// Eligibility is the publication-readiness report: five independent signals,
// an integer score and the threshold it was judged against.
type Eligibility struct {
	Score     int       `json:"score"`
	Threshold int       `json:"threshold"`
	Eligible  bool      `json:"eligible"`
	Signals   []Signal  `json:"signals"`
	ScoredAt  time.Time `json:"scored_at"`
}
