package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

type categoryPatterns struct {
	category ErrorCategory
	patterns []string
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
// Categories are tried in order, so auth failures that mention "access denied" are
// reported as auth rather than permission problems.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		patterns: []categoryPatterns{
			{CategoryAuth, []string{
				"invalid_grant",
				"unauthorized",
				"invalidaccesskeyid",
				"signaturedoesnotmatch",
				"expiredtoken",
				"token has been expired",
				"unable to authenticate",
				"no supported methods remain",
				"knownhosts: key mismatch",
			}},
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"accessdenied",
				"operation not permitted",
				"insufficientfilepermissions",
			}},
			{CategoryDiskSpace, []string{
				"no space left on device",
				"disk full",
				"quota exceeded",
				"storagequotaexceeded",
			}},
			{CategoryNetwork, []string{
				"connection refused",
				"connection reset",
				"i/o timeout",
				"no such host",
				"network is unreachable",
				"tls handshake timeout",
				"context deadline exceeded",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file not found",
				"does not exist",
				"nosuchbucket",
				"not a directory",
			}},
			{CategoryCopy, []string{
				"short write",
				"input/output error",
				"i/o error",
				"unexpected eof",
			}},
		},
	}
}

// patternMatcher is the concrete implementation of PatternMatcher.
type patternMatcher struct {
	patterns []categoryPatterns
}

// Match returns the first category with a pattern contained in the message.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, entry := range m.patterns {
		for _, pattern := range entry.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return entry.category
			}
		}
	}

	return CategoryUnknown
}
