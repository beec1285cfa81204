package listing

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"ArxivTranslator/internal/config"
	"ArxivTranslator/internal/domain"
)

const defaultRecentPageSize = 2000

// Subject ties a short code to the arXiv archive it lists.
type Subject struct {
	Code    string
	Archive string
	Name    string
}

// Registry keeps the closed set of subjects and builds listing URLs for them.
type Registry struct {
	baseURL        string
	recentPageSize int
	subjects       map[string]Subject
}

// NewRegistry builds a registry from the arxiv section of the config.
func NewRegistry(cfg config.ArxivConfig) *Registry {
	r := &Registry{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		recentPageSize: cfg.RecentPageSize,
		subjects:       map[string]Subject{},
	}
	if r.recentPageSize <= 0 {
		r.recentPageSize = defaultRecentPageSize
	}
	for _, s := range cfg.Subjects {
		r.Register(Subject{Code: s.Code, Archive: s.Archive, Name: s.Name})
	}
	return r
}

// Register adds or replaces a subject.
func (r *Registry) Register(subject Subject) {
	if r.subjects == nil {
		r.subjects = map[string]Subject{}
	}
	r.subjects[subject.Code] = subject
}

// Codes lists the registered subject codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.subjects))
	for code := range r.subjects {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the subject for an exact, case-sensitive code.
func (r *Registry) Lookup(code string) (Subject, error) {
	if subject, ok := r.subjects[code]; ok {
		return subject, nil
	}
	return Subject{}, &domain.InvalidSubjectError{Code: code, Known: r.Codes()}
}

// Resolve returns the listing URL for a subject in the given mode.
func (r *Registry) Resolve(code string, mode domain.ListingMode) (string, error) {
	subject, err := r.Lookup(code)
	if err != nil {
		return "", err
	}

	switch mode {
	case domain.ModeNew:
		return fmt.Sprintf("%s/list/%s/new", r.baseURL, subject.Archive), nil
	case domain.ModeRecent:
		return buildPageURL(fmt.Sprintf("%s/list/%s/recent", r.baseURL, subject.Archive), 0, r.recentPageSize)
	default:
		return "", fmt.Errorf("unsupported listing mode %q", mode)
	}
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
