package cache

import "context"

// CacheTag names a cacheable entity family. Tags exist at three
// granularities: global, per-user, and per-entity-id.
//
// Read paths tag entries with the minimal set of tags their data depends
// on; write paths invalidate through Revalidate. Both sides MUST build
// tags through the constructors below — an inline string at either call
// site lets the two drift, which shows up as silent stale reads.
type CacheTag string

const (
	TagProducts      CacheTag = "products"
	TagProductViews  CacheTag = "productViews"
	TagSubscriptions CacheTag = "subscription"
	TagCountries     CacheTag = "countries"
	TagCountryGroups CacheTag = "countryGroups"
)

// GlobalTag covers every entity of a family.
func GlobalTag(tag CacheTag) string {
	return "global:" + string(tag)
}

// UserTag covers one user's entities of a family.
func UserTag(tag CacheTag, userID string) string {
	return "user:" + string(tag) + ":" + userID
}

// IDTag covers one specific entity.
func IDTag(tag CacheTag, id string) string {
	return "id:" + string(tag) + ":" + id
}

// RevalidateOptions describes the scope of a write.
type RevalidateOptions struct {
	Tag    CacheTag
	UserID string
	ID     string
}

// ConcreteTags expands a write scope into every tag a cached read
// depending on that data could carry. The global tag is always included;
// under-invalidation is a correctness bug, over-invalidation only costs a
// recompute.
func (o RevalidateOptions) ConcreteTags() []string {
	tags := []string{GlobalTag(o.Tag)}
	if o.UserID != "" {
		tags = append(tags, UserTag(o.Tag, o.UserID))
	}
	if o.ID != "" {
		tags = append(tags, IDTag(o.Tag, o.ID))
	}
	return tags
}

// Revalidate evicts every cache entry affected by a write to the given
// scope. Eviction only; recomputation happens on the next read.
func Revalidate(ctx context.Context, c Cache, opts RevalidateOptions) {
	c.DeleteByTags(ctx, opts.ConcreteTags())
}
