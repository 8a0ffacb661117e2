package feature

import (
	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

type rule struct {
	vertical model.Vertical
	keywords []string
}

// Classifier maps category tags to a vertical with an ordered,
// first-match-wins rule list. Records matching no rule are Other.
type Classifier struct {
	rules []rule
}

// NewClassifier compiles the rules in the order given.
func NewClassifier(rules []config.ClassifierRule) *Classifier {
	c := &Classifier{rules: make([]rule, 0, len(rules))}
	for _, r := range rules {
		c.rules = append(c.rules, rule{vertical: r.Vertical, keywords: lowerAll(r.Keywords)})
	}
	return c
}

// Classify returns the vertical for a record's category tags. A rule
// matches when any of its keywords is a case-insensitive substring of the
// joined tags.
func (c *Classifier) Classify(tags []string) model.Vertical {
	return c.classifyJoined(joinTags(tags))
}

func (c *Classifier) classifyJoined(joined string) model.Vertical {
	for _, r := range c.rules {
		if containsAny(joined, r.keywords) {
			return r.vertical
		}
	}
	return model.VerticalOther
}
