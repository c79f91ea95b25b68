package compiler

import (
	"strings"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/validation"
)

var (
	ErrInvalidName   = errors.New("invalid template name")
	ErrNameCollision = errors.New("template names collide")
)

// namer turns pipeline and step names into DNS-1123 labels and makes sure two
// names never map to the same label.
type namer struct {
	labels map[string]string
	owners map[string]string
}

func newNamer() *namer {
	return &namer{
		labels: make(map[string]string),
		owners: make(map[string]string),
	}
}

func sanitize(name string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	return strings.Trim(b.String(), "-")
}

func (n *namer) add(name string) (string, error) {
	label := sanitize(name)

	if msgs := validation.IsDNS1123Label(label); len(msgs) > 0 {
		return "", errors.Wrapf(ErrInvalidName, "%q: %s", name, strings.Join(msgs, ", "))
	}

	if owner, ok := n.owners[label]; ok {
		return "", errors.Wrapf(ErrNameCollision, "%q and %q both become %q", owner, name, label)
	}

	n.owners[label] = name
	n.labels[name] = label

	return label, nil
}

func (n *namer) label(name string) string {
	return n.labels[name]
}
