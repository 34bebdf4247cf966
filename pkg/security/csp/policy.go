// Package csp builds Content-Security-Policy header values. The API
// serves only JSON, so the interesting preset is StrictPolicy, which
// blocks all content loading; the builder exists so responses that do
// render (error pages, future embedded dashboards) can loosen
// individual directives without string concatenation.
package csp

import (
	"strings"
)

// directiveOrder fixes the emission order so the same builder state
// always produces the same header value.
var directiveOrder = []string{
	"default-src",
	"script-src",
	"style-src",
	"img-src",
	"font-src",
	"connect-src",
	"frame-ancestors",
	"form-action",
	"base-uri",
	"object-src",
	"report-uri",
}

// CSPBuilder accumulates directives through a fluent interface.
// Setting the same directive twice overwrites the earlier sources.
// Not safe for concurrent use.
type CSPBuilder struct {
	directives map[string][]string
	reportOnly bool
}

// NewCSPBuilder returns an empty builder.
func NewCSPBuilder() *CSPBuilder {
	return &CSPBuilder{directives: make(map[string][]string)}
}

func (b *CSPBuilder) set(directive string, sources []string) *CSPBuilder {
	b.directives[directive] = sources
	return b
}

// DefaultSrc sets default-src, the fallback for fetch directives that
// are not set explicitly.
func (b *CSPBuilder) DefaultSrc(sources ...string) *CSPBuilder {
	return b.set("default-src", sources)
}

// ScriptSrc sets script-src.
func (b *CSPBuilder) ScriptSrc(sources ...string) *CSPBuilder {
	return b.set("script-src", sources)
}

// StyleSrc sets style-src.
func (b *CSPBuilder) StyleSrc(sources ...string) *CSPBuilder {
	return b.set("style-src", sources)
}

// ImgSrc sets img-src.
func (b *CSPBuilder) ImgSrc(sources ...string) *CSPBuilder {
	return b.set("img-src", sources)
}

// FontSrc sets font-src.
func (b *CSPBuilder) FontSrc(sources ...string) *CSPBuilder {
	return b.set("font-src", sources)
}

// ConnectSrc sets connect-src, which governs fetch, XHR, WebSocket and
// EventSource targets.
func (b *CSPBuilder) ConnectSrc(sources ...string) *CSPBuilder {
	return b.set("connect-src", sources)
}

// FrameAncestors sets frame-ancestors. "'none'" prevents the response
// from being embedded anywhere, the clickjacking defense.
func (b *CSPBuilder) FrameAncestors(sources ...string) *CSPBuilder {
	return b.set("frame-ancestors", sources)
}

// FormAction sets form-action.
func (b *CSPBuilder) FormAction(sources ...string) *CSPBuilder {
	return b.set("form-action", sources)
}

// BaseUri sets base-uri, pinning what a <base> element may point at.
func (b *CSPBuilder) BaseUri(sources ...string) *CSPBuilder {
	return b.set("base-uri", sources)
}

// ObjectSrc sets object-src.
func (b *CSPBuilder) ObjectSrc(sources ...string) *CSPBuilder {
	return b.set("object-src", sources)
}

// ReportUri sets report-uri. Deprecated in CSP3 in favor of report-to
// but still the widely supported option.
func (b *CSPBuilder) ReportUri(uri string) *CSPBuilder {
	return b.set("report-uri", []string{uri})
}

// ReportOnly switches between enforcement and report-only mode, which
// changes the header name, not the policy value.
func (b *CSPBuilder) ReportOnly(enabled bool) *CSPBuilder {
	b.reportOnly = enabled
	return b
}

// Build renders the policy value. Directives with no sources are
// omitted; an empty builder renders "".
func (b *CSPBuilder) Build() string {
	var parts []string
	for _, directive := range directiveOrder {
		if sources := b.directives[directive]; len(sources) > 0 {
			parts = append(parts, directive+" "+strings.Join(sources, " "))
		}
	}
	return strings.Join(parts, "; ")
}

// HeaderName returns the header this policy should be sent under,
// depending on report-only mode.
func (b *CSPBuilder) HeaderName() string {
	if b.reportOnly {
		return "Content-Security-Policy-Report-Only"
	}
	return "Content-Security-Policy"
}

// StrictPolicy is the production policy for the JSON API: nothing
// loads, nothing embeds, same-origin connections only.
func StrictPolicy() *CSPBuilder {
	return NewCSPBuilder().
		DefaultSrc("'none'").
		ConnectSrc("'self'").
		FrameAncestors("'none'").
		BaseUri("'self'").
		FormAction("'self'")
}

// RelaxedPolicy permits inline scripts, eval and any https source.
// Development only.
func RelaxedPolicy() *CSPBuilder {
	return NewCSPBuilder().
		DefaultSrc("'self'").
		ScriptSrc("'self'", "'unsafe-inline'", "'unsafe-eval'", "https:").
		StyleSrc("'self'", "'unsafe-inline'", "https:").
		ImgSrc("'self'", "data:", "https:").
		FontSrc("'self'", "data:", "https:").
		ConnectSrc("'self'", "https:").
		FrameAncestors("'self'").
		BaseUri("'self'").
		FormAction("'self'")
}
