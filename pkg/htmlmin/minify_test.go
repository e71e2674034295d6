package htmlmin

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/htmlmin/pkg/htmlparser"
)

// with returns DefaultOptions modified by fn.
func with(fn func(o *Options)) *Options {
	o := DefaultOptions()
	fn(o)
	return o
}

func mustMinify(t *testing.T, input string, opts *Options) string {
	t.Helper()
	out, err := Minify(input, opts)
	if err != nil {
		t.Fatalf("Minify(%q) error: %v", input, err)
	}
	return out
}

func TestMinify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     *Options
		expected string
	}{
		{
			name:     "identity with default options",
			input:    `<p>blah<span>blah 2<span>blah 3</span></span></p>`,
			opts:     nil,
			expected: `<p>blah<span>blah 2<span>blah 3</span></span></p>`,
		},
		{
			name:     "short doctype",
			input:    `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd">`,
			opts:     with(func(o *Options) { o.UseShortDoctype = true }),
			expected: `<!DOCTYPE html>`,
		},
		{
			name:     "doctype whitespace collapsed",
			input:    "<!DOCTYPE html\n   PUBLIC \"x\">",
			opts:     nil,
			expected: `<!DOCTYPE html PUBLIC "x">`,
		},
		{
			name:     "remove attribute quotes",
			input:    `<p title="blah" class="a23B-foo.bar_baz:qux" id="moo">foo</p>`,
			opts:     with(func(o *Options) { o.RemoveAttributeQuotes = true }),
			expected: `<p title=blah class=a23B-foo.bar_baz:qux id=moo>foo</p>`,
		},
		{
			name:     "quotes kept when value needs them",
			input:    `<p title="a b" data-x="">x</p>`,
			opts:     with(func(o *Options) { o.RemoveAttributeQuotes = true }),
			expected: `<p title="a b" data-x="">x</p>`,
		},
		{
			name:     "collapse boolean attributes",
			input:    `<input disabled="disabled">`,
			opts:     with(func(o *Options) { o.CollapseBooleanAttributes = true }),
			expected: `<input disabled>`,
		},
		{
			name:     "optional tags in tables",
			input:    `<table><thead><tr><th>foo</th><th>bar</th></tr></thead><tfoot><tr><th>baz</th><th>qux</th></tr></tfoot><tbody><tr><td>boo</td><td>moo</td></tr></tbody></table>`,
			opts:     with(func(o *Options) { o.RemoveOptionalTags = true }),
			expected: `<table><thead><tr><th>foo<th>bar<tfoot><tr><th>baz<th>qux<tbody><tr><td>boo<td>moo</table>`,
		},
		{
			name:     "optional document tags",
			input:    `<html><head><title>t</title></head><body><p>a</p><p>b</p></body></html>`,
			opts:     with(func(o *Options) { o.RemoveOptionalTags = true }),
			expected: `<title>t</title><p>a<p>b`,
		},
		{
			name:     "paragraph end kept inside inline parent",
			input:    `<a href="#"><p>x</p></a>`,
			opts:     with(func(o *Options) { o.RemoveOptionalTags = true }),
			expected: `<a href="#"><p>x</p></a>`,
		},
		{
			name:     "conservative collapse",
			input:    "<b>   foo \n\n</b>",
			opts:     with(func(o *Options) { o.CollapseWhitespace = true; o.ConservativeCollapse = true }),
			expected: `<b> foo </b>`,
		},
		{
			name:     "collapse around blocks and inline elements",
			input:    "<div>\n  <p>  foo  <b>bar</b>  baz </p>\n</div>",
			opts:     with(func(o *Options) { o.CollapseWhitespace = true }),
			expected: `<div><p>foo <b>bar</b> baz</p></div>`,
		},
		{
			name:     "collapse inline tag whitespace",
			input:    `<p>foo <b> bar </b> baz</p>`,
			opts:     with(func(o *Options) { o.CollapseWhitespace = true; o.CollapseInlineTagWhitespace = true }),
			expected: `<p>foo<b>bar</b>baz</p>`,
		},
		{
			name:     "preserve line breaks",
			input:    "<div>\n  foo\n</div>",
			opts:     with(func(o *Options) { o.CollapseWhitespace = true; o.PreserveLineBreaks = true }),
			expected: "<div>\nfoo\n</div>",
		},
		{
			name:     "pre and textarea untouched",
			input:    "<div> <pre>  a\n  b </pre> <textarea>  x  </textarea> </div>",
			opts:     with(func(o *Options) { o.CollapseWhitespace = true }),
			expected: "<div><pre>  a\n  b </pre><textarea>  x  </textarea></div>",
		},
		{
			name:     "remove comments",
			input:    `<p>foo <!-- note --> bar</p><!--! keep -->`,
			opts:     with(func(o *Options) { o.RemoveComments = true; o.CollapseWhitespace = true }),
			expected: `<p>foo bar</p><!--! keep -->`,
		},
		{
			name:     "custom ignored comments",
			input:    `<!-- ko if: x --><p>y</p><!-- /ko --><!-- gone -->`,
			opts:     with(func(o *Options) { o.RemoveComments = true; o.IgnoreCustomComments = []string{`^\s*/?ko\b`} }),
			expected: `<!-- ko if: x --><p>y</p><!-- /ko -->`,
		},
		{
			name:     "conditional comments kept",
			input:    `<!--[if IE 6]><p>  x  </p><![endif]-->`,
			opts:     with(func(o *Options) { o.RemoveComments = true }),
			expected: `<!--[if IE 6]><p>  x  </p><![endif]-->`,
		},
		{
			name:  "conditional comments processed",
			input: `<!--[if IE 6]> <p>  x  </p> <![endif]-->`,
			opts: with(func(o *Options) {
				o.RemoveComments = true
				o.CollapseWhitespace = true
				o.ProcessConditionalComments = true
			}),
			expected: `<!--[if IE 6]><p>x</p><![endif]-->`,
		},
		{
			name: "redundant attributes",
			input: `<form method="get"><input type="text" name="q"><a id="top" name="top">x</a>` +
				`<script language="javascript" charset="utf-8">a()</script></form>`,
			opts:     with(func(o *Options) { o.RemoveRedundantAttributes = true }),
			expected: `<form><input name="q"><a id="top">x</a><script>a()</script></form>`,
		},
		{
			name:     "script and style type attributes",
			input:    `<script type="text/javascript">a()</script><style type="text/css">a{}</style><link rel="stylesheet" type="text/css" href="a.css"><script type="text/template">x</script>`,
			opts:     with(func(o *Options) { o.RemoveScriptTypeAttributes = true; o.RemoveStyleLinkTypeAttributes = true }),
			expected: `<script>a()</script><style>a{}</style><link rel="stylesheet" href="a.css"><script type="text/template">x</script>`,
		},
		{
			name:     "empty attributes",
			input:    `<div class="" id=" " data-a="" onclick="">x</div><input value="">`,
			opts:     with(func(o *Options) { o.RemoveEmptyAttributes = true }),
			expected: `<div data-a="">x</div><input>`,
		},
		{
			name:     "attribute values cleaned",
			input:    `<div class="  a   b  " onclick="javascript: go();" style="color: red; " tabindex=" 1 ">x</div>`,
			opts:     nil,
			expected: `<div class="a b" onclick="go()" style="color: red" tabindex=" 1 ">x</div>`,
		},
		{
			name:     "meta viewport",
			input:    `<meta name="viewport" content="width=device-width, initial-scale=1.0">`,
			opts:     nil,
			expected: `<meta name="viewport" content="width=device-width,initial-scale=1">`,
		},
		{
			name:     "quote character chosen by content",
			input:    `<p title='say "hi"'>x</p>`,
			opts:     nil,
			expected: `<p title='say "hi"'>x</p>`,
		},
		{
			name:     "forced quote character escapes",
			input:    `<p title='say "hi"'>x</p>`,
			opts:     with(func(o *Options) { o.QuoteCharacter = `"` }),
			expected: `<p title="say &#34;hi&#34;">x</p>`,
		},
		{
			name:     "prevent attributes escaping",
			input:    `<p title='say "hi"'>x</p>`,
			opts:     with(func(o *Options) { o.PreventAttributesEscaping = true; o.QuoteCharacter = `"` }),
			expected: `<p title='say "hi"'>x</p>`,
		},
		{
			name:     "remove empty elements",
			input:    `<div><p></p><section> </section><textarea></textarea><script src="a.js"></script><iframe></iframe></div>`,
			opts:     with(func(o *Options) { o.RemoveEmptyElements = true; o.CollapseWhitespace = true }),
			expected: `<div><textarea></textarea><script src="a.js"></script></div>`,
		},
		{
			name:     "whitespace fixed up after removed element",
			input:    `<div>foo <span></span> bar</div>`,
			opts:     with(func(o *Options) { o.RemoveEmptyElements = true; o.CollapseWhitespace = true }),
			expected: `<div>foo bar</div>`,
		},
		{
			name:     "auto generated tags dropped",
			input:    `<div><p>a<p>b</div>`,
			opts:     with(func(o *Options) { o.IncludeAutoGeneratedTags = false }),
			expected: `<div><p>a<p>b</div>`,
		},
		{
			name:     "auto generated tags kept",
			input:    `<div><p>a<p>b</div>`,
			opts:     nil,
			expected: `<div><p>a</p><p>b</p></div>`,
		},
		{
			name:     "lower-cases names",
			input:    `<DIV CLASS="x">y</DIV>`,
			opts:     nil,
			expected: `<div class="x">y</div>`,
		},
		{
			name:     "case sensitive names",
			input:    `<DIV CLASS="x">y</DIV>`,
			opts:     with(func(o *Options) { o.CaseSensitive = true }),
			expected: `<DIV CLASS="x">y</DIV>`,
		},
		{
			name:     "svg keeps case and closing slash",
			input:    `<div><br/><svg viewBox="0 0 1 1"><linearGradient id="g"/><path d="M0 0"/></svg></div>`,
			opts:     nil,
			expected: `<div><br><svg viewBox="0 0 1 1"><linearGradient id="g"/><path d="M0 0"/></svg></div>`,
		},
		{
			name:     "keep closing slash",
			input:    `<br/><img src=a.png />`,
			opts:     with(func(o *Options) { o.KeepClosingSlash = true; o.RemoveAttributeQuotes = true }),
			expected: `<br/><img src=a.png />`,
		},
		{
			name:     "remove tag whitespace",
			input:    `<p class="a b" id="c d" title=x>y</p>`,
			opts:     with(func(o *Options) { o.RemoveTagWhitespace = true }),
			expected: `<p class="a b"id="c d"title="x">y</p>`,
		},
		{
			name:     "decode entities",
			input:    `<p title="&quot;x&quot;">&lt;b&gt; &amp; &copy; &amp;amp;</p>`,
			opts:     with(func(o *Options) { o.DecodeEntities = true }),
			expected: `<p title='"x"'>&lt;b> & © &amp;amp;</p>`,
		},
		{
			name:     "remove comments from cdata",
			input:    "<script><!--\nalert(1);\n//--></script><style><!-- a{} --></style>",
			opts:     with(func(o *Options) { o.RemoveCommentsFromCDATA = true }),
			expected: "<script>alert(1);</script><style>a{}</style>",
		},
		{
			name:     "remove cdata sections",
			input:    "<script>/*<![CDATA[*/alert(1);/*]]>*/</script>",
			opts:     with(func(o *Options) { o.RemoveCDATASectionsFromCDATA = true }),
			expected: "<script>alert(1);</script>",
		},
		{
			name:  "process scripts as html",
			input: `<script type="text/ng-template"><div>  <p>  x  </p>  </div></script>`,
			opts: with(func(o *Options) {
				o.CollapseWhitespace = true
				o.ProcessScripts = []string{"text/ng-template"}
			}),
			expected: `<script type="text/ng-template"><div><p>x</p></div></script>`,
		},
		{
			name:     "custom attribute collapse",
			input:    "<div ng-class=\"{\n  a: b,\n  c:  d\n}\">x</div>",
			opts:     with(func(o *Options) { o.CustomAttrCollapse = `ng-class` }),
			expected: `<div ng-class="{a: b,c:d}">x</div>`,
		},
		{
			name:  "custom attribute surround",
			input: `<input {{#if value}}checked="checked"{{/if}}>`,
			opts: with(func(o *Options) {
				o.CustomAttrSurround = []htmlparser.Surround{{Open: `\{\{#if\s+\w+\}\}`, Close: `\{\{/if\}\}`}}
				o.CollapseBooleanAttributes = true
			}),
			expected: `<input {{#if value}}checked{{/if}}>`,
		},
		{
			name:     "decode entities keeps ampersands that start a reference",
			input:    `<p title="a&amp;copy">&amp;copy 2024 &amp;#169 &amp;&amp; b</p>`,
			opts:     with(func(o *Options) { o.DecodeEntities = true }),
			expected: `<p title="a&amp;copy">&amp;copy 2024 &amp;#169 && b</p>`,
		},
		{
			name:     "self-closed svg does not leak case sensitivity",
			input:    `<svg/><DIV CLASS="x">y<BR/></DIV>`,
			opts:     nil,
			expected: `<svg/><div class="x">y<br></div>`,
		},
		{
			name:     "collapse whitespace at start of input",
			input:    "  lead   text  <div>x</div>",
			opts:     with(func(o *Options) { o.CollapseWhitespace = true }),
			expected: " lead text<div>x</div>",
		},
		{
			name:     "collapse whitespace in leading inline text",
			input:    "a   b <b>c</b>",
			opts:     with(func(o *Options) { o.CollapseWhitespace = true }),
			expected: "a b <b>c</b>",
		},
		{
			name:     "paragraph end kept inside custom element",
			input:    `<x-card><p>a</p></x-card>`,
			opts:     with(func(o *Options) { o.RemoveOptionalTags = true }),
			expected: `<x-card><p>a</p></x-card>`,
		},
		{
			name:     "template fragments pass through",
			input:    `<div class="<%= cls %>" <?php echo $a ?>>  <%= body %>  </div>`,
			opts:     with(func(o *Options) { o.CollapseWhitespace = true; o.RemoveAttributeQuotes = true }),
			expected: `<div class="<%= cls %>" <?php echo $a ?>> <%= body %> </div>`,
		},
		{
			name:     "template fragments trimmed",
			input:    `<div>  <%= body %>  </div>`,
			opts:     with(func(o *Options) { o.CollapseWhitespace = true; o.TrimCustomFragments = true }),
			expected: `<div><%= body %></div>`,
		},
		{
			name:     "template fragments removed",
			input:    `<p>a<% x %>b</p>`,
			opts:     with(func(o *Options) { o.RemoveIgnored = true }),
			expected: `<p>ab</p>`,
		},
		{
			name:     "remove blocks",
			input:    `<p>a</p><!-- htmlmin:remove --><p>debug</p><!-- htmlmin:remove --><p>b</p>`,
			opts:     nil,
			expected: `<p>a</p><p>b</p>`,
		},
		{
			name:     "stray less-than kept as text",
			input:    `<p>1 < 2</p>`,
			opts:     with(func(o *Options) { o.CollapseWhitespace = true }),
			expected: `<p>1 < 2</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustMinify(t, tt.input, tt.opts)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestMinify_IgnoreRoundTrip(t *testing.T) {
	raws := []string{
		"  <p>  keep   me </p>  ",
		"<!-- a comment -->\n\t<div\nclass = 'x' >",
		"<% template %> <?php x ?> &amp; &nbsp;",
		"",
	}
	optionSets := map[string]*Options{
		"default":    nil,
		"aggressive": PresetAggressive(),
		"conservative": with(func(o *Options) {
			o.CollapseWhitespace = true
			o.ConservativeCollapse = true
			o.RemoveComments = true
			o.MaxLineLength = 10
		}),
	}

	for name, opts := range optionSets {
		for _, raw := range raws {
			t.Run(name, func(t *testing.T) {
				input := "<div>  <!-- htmlmin:ignore -->" + raw + "<!-- htmlmin:ignore -->  </div>"
				got := mustMinify(t, input, opts)
				if !strings.Contains(got, raw) {
					t.Errorf("expected output to contain %q verbatim, got %q", raw, got)
				}
				if strings.Contains(got, "htmlmin:ignore") {
					t.Errorf("expected markers to be consumed, got %q", got)
				}
			})
		}
	}
}

func TestMinify_UnmatchedMarkers(t *testing.T) {
	got := mustMinify(t, `<p>a</p><!-- htmlmin:ignore --><p>b</p>`, with(func(o *Options) { o.RemoveComments = true }))
	if got != `<p>a</p><p>b</p>` {
		t.Errorf("expected lone marker to be removed as a comment, got %q", got)
	}

	got = mustMinify(t, `<p>a</p><!-- htmlmin:remove --><p>b</p>`, nil)
	if got != `<p>a</p><!-- htmlmin:remove --><p>b</p>` {
		t.Errorf("expected lone remove marker to stay a comment, got %q", got)
	}
}

func TestMinify_Idempotent(t *testing.T) {
	opts := with(func(o *Options) {
		o.RemoveComments = true
		o.CollapseWhitespace = true
		o.UseShortDoctype = true
		o.CollapseBooleanAttributes = true
	})
	inputs := []string{
		"<!DOCTYPE html>\n<html>\n <head><title> T </title></head>\n <body>\n  <!-- c -->\n  <p>foo <b> bar </b>\n baz</p>\n  <input checked=\"checked\">\n </body>\n</html>",
		"<ul>\n <li>a\n <li>b\n</ul>",
		"<div>  text <img src=x>  <span> s </span>  </div>",
	}
	for _, input := range inputs {
		once := mustMinify(t, input, opts)
		twice := mustMinify(t, once, opts)
		if once != twice {
			t.Errorf("expected idempotent output\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}

// Collapsing whitespace and dropping optional tags must not change the text
// of any element.
func TestMinify_TextEquivalence(t *testing.T) {
	input := `<html><body>
		<h1>  Title  </h1>
		<p>Some <em>emphasised</em>   text and a <a href="/x">link</a>.</p>
		<ul>
			<li>one</li>
			<li>two</li>
		</ul>
	</body></html>`

	out := mustMinify(t, input, PresetAggressive())

	textsOf := func(doc, selector string) []string {
		d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("goquery parse error: %v", err)
		}
		var texts []string
		d.Find(selector).Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, strings.Join(strings.Fields(s.Text()), " "))
		})
		return texts
	}

	for _, selector := range []string{"h1", "p", "em", "a", "li"} {
		want := textsOf(input, selector)
		got := textsOf(out, selector)
		if strings.Join(want, "|") != strings.Join(got, "|") {
			t.Errorf("%s: expected %q, got %q", selector, want, got)
		}
	}

	d, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("goquery parse error: %v", err)
	}
	if href, _ := d.Find("a").Attr("href"); href != "/x" {
		t.Errorf("expected href /x, got %q", href)
	}
}

func TestMinify_MaxLineLength(t *testing.T) {
	input := `<div><p>alpha</p><p>beta</p><p>gamma</p></div>`
	got := mustMinify(t, input, with(func(o *Options) { o.MaxLineLength = 12 }))
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 12 {
			t.Errorf("line %q exceeds 12 characters", line)
		}
	}
	if strings.ReplaceAll(got, "\n", "") != input {
		t.Errorf("expected only line breaks to be added, got %q", got)
	}
}

func TestMinify_ParseError(t *testing.T) {
	_, err := Minify(`<p>x</p><!-- unterminated`, nil)
	var perr *htmlparser.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *htmlparser.ParseError, got %v", err)
	}
	if perr.Offset != 8 {
		t.Errorf("expected offset 8, got %d", perr.Offset)
	}
}

func TestMinifyWithStats(t *testing.T) {
	m, err := New(with(func(o *Options) {
		o.RemoveComments = true
		o.RemoveEmptyAttributes = true
		o.RemoveOptionalTags = true
		o.RemoveEmptyElements = true
	}))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	input := `<!-- a --><ul><li class="">x</li><li>y</li></ul><div></div><!-- htmlmin:ignore -->raw<!-- htmlmin:ignore --><% t %>`
	result, err := m.MinifyWithStats(input)
	if err != nil {
		t.Fatalf("MinifyWithStats error: %v", err)
	}

	s := result.Stats
	if s.InputBytes != len(input) {
		t.Errorf("expected InputBytes %d, got %d", len(input), s.InputBytes)
	}
	if s.OutputBytes != len(result.Content) {
		t.Errorf("expected OutputBytes %d, got %d", len(result.Content), s.OutputBytes)
	}
	if s.CommentsRemoved != 1 {
		t.Errorf("expected 1 comment removed, got %d", s.CommentsRemoved)
	}
	if s.AttributesRemoved != 1 {
		t.Errorf("expected 1 attribute removed, got %d", s.AttributesRemoved)
	}
	if s.OptionalTagsRemoved != 2 {
		t.Errorf("expected 2 optional tags removed, got %d", s.OptionalTagsRemoved)
	}
	if s.EmptyElementsRemoved != 1 {
		t.Errorf("expected 1 empty element removed, got %d", s.EmptyElementsRemoved)
	}
	if s.IgnoredBlocks != 1 || s.CustomFragments != 1 {
		t.Errorf("expected 1 ignored block and 1 fragment, got %d and %d", s.IgnoredBlocks, s.CustomFragments)
	}
	if s.ReductionPercent() <= 0 {
		t.Errorf("expected positive reduction, got %.1f", s.ReductionPercent())
	}
	if !strings.Contains(s.String(), "Comments removed: 1") {
		t.Errorf("expected summary to mention removed comments, got %q", s.String())
	}
	if result.Content != `<ul><li>x<li>y</ul>raw<% t %>` {
		t.Errorf("unexpected content %q", result.Content)
	}
}

func TestName(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if m.Name() != "htmlmin" {
		t.Errorf("expected name htmlmin, got %q", m.Name())
	}
}
