package release

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Upstream identifies one tracked dictionary repository.
type Upstream struct {
	// Key is the name used in the version record.
	Key string
	// Owner and Repo locate the GitHub repository.
	Owner string
	Repo  string
}

// Upstreams lists the tracked dictionary sources: mw2fcitx tags
// releases with dates (20260209), fcitx5-pinyin-zhwiki with semver
// (0.3.0).
var Upstreams = []Upstream{
	{Key: "mw2fcitx", Owner: "outloudvi", Repo: "mw2fcitx"},
	{Key: "fcitx5-pinyin-zhwiki", Owner: "felixonmars", Repo: "fcitx5-pinyin-zhwiki"},
}

// zhwikiVariants are the dictionary variant prefixes published by
// fcitx5-pinyin-zhwiki as `{variant}-YYYYMMDD.dict.yaml` assets.
var zhwikiVariants = []string{"zhwiki", "zhwiktionary", "zhwikisource", "web-slang"}

// Update describes one upstream with a release newer than the recorded
// tag, along with the download URL per dictionary variant.
type Update struct {
	Tag    string
	Assets map[string]string
}

// CheckUpdates compares every tracked upstream's latest release against
// the recorded versions and returns the ones that changed. An upstream
// whose release cannot be fetched or that reports an empty tag is
// logged and skipped; a never-checked upstream (empty recorded tag)
// always counts as outdated.
func (c *Client) CheckUpdates(ctx context.Context, local Versions) map[string]Update {
	updates := make(map[string]Update)

	for _, up := range Upstreams {
		rel, err := c.Latest(ctx, up.Owner, up.Repo)
		if err != nil {
			c.log.Warn("skipping upstream", zap.String("upstream", up.Key), zap.Error(err))
			continue
		}
		if rel.Tag == "" {
			c.log.Warn("upstream returned empty tag", zap.String("upstream", up.Key))
			continue
		}

		if local[up.Key] == rel.Tag {
			c.log.Info("upstream up to date",
				zap.String("upstream", up.Key), zap.String("tag", rel.Tag))
			continue
		}

		c.log.Info("new upstream release",
			zap.String("upstream", up.Key),
			zap.String("local", local[up.Key]),
			zap.String("latest", rel.Tag))
		updates[up.Key] = Update{
			Tag:    rel.Tag,
			Assets: extractAssets(up.Key, rel.Assets),
		}
	}
	return updates
}

// extractAssets picks the dictionary download URLs out of a release's
// asset list, per upstream naming convention.
func extractAssets(key string, assets []Asset) map[string]string {
	switch key {
	case "mw2fcitx":
		return moegirlAssets(assets)
	case "fcitx5-pinyin-zhwiki":
		return zhwikiAssets(assets)
	default:
		return map[string]string{}
	}
}

// moegirlAssets finds the single moegirl.dict.yaml asset.
func moegirlAssets(assets []Asset) map[string]string {
	out := make(map[string]string)
	for _, a := range assets {
		if a.Name == "moegirl.dict.yaml" && a.URL != "" {
			out["moegirl"] = a.URL
			break
		}
	}
	return out
}

// zhwikiAssetRe matches `{variant}-YYYYMMDD.dict.yaml` asset names.
var zhwikiAssetRe = regexp.MustCompile(
	`^(` + strings.Join(zhwikiVariants, "|") + `)-(\d{8})\.dict\.yaml$`)

// zhwikiAssets maps each published variant to its newest dated asset.
// When a variant appears with several dates, the latest wins; the date
// format YYYYMMDD makes string comparison sufficient.
func zhwikiAssets(assets []Asset) map[string]string {
	type dated struct {
		date string
		url  string
	}
	candidates := make(map[string][]dated, len(zhwikiVariants))

	for _, a := range assets {
		if a.URL == "" {
			continue
		}
		if m := zhwikiAssetRe.FindStringSubmatch(a.Name); m != nil {
			candidates[m[1]] = append(candidates[m[1]], dated{date: m[2], url: a.URL})
		}
	}

	out := make(map[string]string)
	for variant, list := range candidates {
		sort.Slice(list, func(i, j int) bool { return list[i].date > list[j].date })
		out[variant] = list[0].url
	}
	return out
}
