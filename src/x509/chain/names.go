// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"fmt"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
	x509ext "github.com/H0llyW00dzZ/x509-path-validator/src/x509/ext"
	x509names "github.com/H0llyW00dzZ/x509-path-validator/src/x509/names"
)

// constraintsAbove returns the name constraints of every certificate above
// position i. Each element is one layer: permitted subtrees intersect across
// layers and excluded subtrees accumulate.
func constraintsAbove(sets []*x509ext.ConstraintSet, i int) []*x509certs.NameConstraints {
	var layers []*x509certs.NameConstraints
	for _, set := range sets[i+1:] {
		if set != nil && set.NameConstraints != nil {
			layers = append(layers, set.NameConstraints)
		}
	}
	return layers
}

// constrainedNames lists the names of cert subject to name constraints: the
// subject, the subject alternative names, and without those the emailAddress
// attributes of the subject.
func constrainedNames(cert *x509certs.Certificate, set *x509ext.ConstraintSet) []x509certs.GeneralName {
	var names []x509certs.GeneralName
	if !cert.Subject.IsEmpty() {
		names = append(names, x509certs.DirectoryName(cert.Subject))
	}
	if set.SubjectAltName != nil {
		return append(names, set.SubjectAltName.Names...)
	}
	for _, email := range cert.Subject.Attributes(x509certs.OIDAttributeEmailAddress) {
		names = append(names, x509certs.EmailName(email))
	}
	return names
}

func checkNameConstraints(cert *x509certs.Certificate, set *x509ext.ConstraintSet, layers []*x509certs.NameConstraints) error {
	if len(layers) == 0 {
		return nil
	}
	names := constrainedNames(cert, set)
	for _, nc := range layers {
		for _, name := range names {
			for _, ex := range nc.Excluded {
				if ex.Kind != name.Kind {
					continue
				}
				// A constraint that cannot be evaluated excludes.
				if match, ok := matchName(name, ex, true); !ok || match {
					return fmt.Errorf("%s %q is excluded by %q", name.Kind, name, ex)
				}
			}

			constrained, permitted := false, false
			for _, p := range nc.Permitted {
				if p.Kind != name.Kind {
					continue
				}
				constrained = true
				if match, ok := matchName(name, p, false); ok && match {
					permitted = true
					break
				}
			}
			if constrained && !permitted {
				return fmt.Errorf("%s %q is not within the permitted subtrees", name.Kind, name)
			}
		}
	}
	return nil
}

// matchName reports whether name lies within constraint c of the same kind.
// ok is false for forms that cannot be evaluated. Against an excluded
// subtree a wildcard dNSName matches when any host it covers would.
func matchName(name, c x509certs.GeneralName, excluded bool) (match, ok bool) {
	switch name.Kind {
	case x509certs.GeneralNameDNS:
		if name.Unnormalized || c.Unnormalized {
			return false, false
		}
		if excluded {
			return x509names.WildcardOverlapsSubtree(name.DNS, c.DNS), true
		}
		return x509names.NameInSubtree(name.DNS, c.DNS), true
	case x509certs.GeneralNameEmail:
		return x509names.EmailInSubtree(name.Email, c.Email), true
	case x509certs.GeneralNameURI:
		return x509names.URIInSubtree(name.URI, c.URI), true
	case x509certs.GeneralNameIP:
		if c.IPNet == nil || name.IP == nil {
			return false, false
		}
		return x509names.IPInSubtree(name.IP, c.IPNet), true
	case x509certs.GeneralNameDirectory:
		return name.Directory.HasPrefix(c.Directory), true
	}
	return false, false
}
