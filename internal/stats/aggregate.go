// internal/stats/aggregate.go
package stats

import "portfolio-stats/internal/model"

// DefaultFallbackLanguage is reported as most used when no repository declares a language.
const DefaultFallbackLanguage = "JavaScript"

// Aggregate derives summary statistics from the account's repositories in a
// single pass. Repositories without a declared language count towards
// TotalRepos but are left out of the language tally.
//
// The most used language is the one with the highest count; ties go to the
// language encountered first in repos. When no language is declared at all,
// fallback is reported and HasLanguageData is false.
func Aggregate(repos []model.Repository, account model.Account, fallback string) model.Stats {
	s := model.Stats{
		TotalRepos:  len(repos),
		Languages:   make(map[string]int),
		PublicRepos: account.PublicRepos,
		Followers:   account.Followers,
		Following:   account.Following,
	}

	var order []string
	for _, r := range repos {
		s.TotalStars += r.Stars
		s.TotalForks += r.Forks
		if r.Language == nil || *r.Language == "" {
			continue
		}
		lang := *r.Language
		if _, seen := s.Languages[lang]; !seen {
			order = append(order, lang)
		}
		s.Languages[lang]++
	}

	s.MostUsedLanguage = fallback
	best := 0
	for _, lang := range order {
		if n := s.Languages[lang]; n > best {
			best = n
			s.MostUsedLanguage = lang
		}
	}
	s.HasLanguageData = best > 0

	return s
}

// CountRepositories tallies repos by visibility and fork status.
func CountRepositories(repos []model.Repository) model.RepositoryCounts {
	c := model.RepositoryCounts{Total: len(repos)}
	for _, r := range repos {
		switch {
		case r.Visibility == model.VisibilityPrivate:
			c.Private++
		case r.IsPublic() && r.Fork:
			c.Forks++
		case r.IsPublic():
			c.Original++
		}
	}
	return c
}
