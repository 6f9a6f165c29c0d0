package importer

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/artpar/workbench/internal/core"
)

var (
	continuationPattern = regexp.MustCompile(`\\\r?\n`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	curlPrefixPattern   = regexp.MustCompile(`^curl(?:\s+|$)`)

	// flagPattern matches every flag whose value the parser reads.
	flagPattern = regexp.MustCompile(`(?:^|\s)(-X|--request|-H|--header|--data-raw|--data-binary|--data|-d|--json|-F|--form|-u|--user|-A|--user-agent|-b|--cookie|-e|--referer)(?:\s+|=)`)
	// gluedMethodPattern matches the -XPOST spelling.
	gluedMethodPattern = regexp.MustCompile(`(?:^|\s)-X([A-Za-z]+)(?:\s|$)`)

	singleQuotedPattern = regexp.MustCompile(`^'([^']*)'`)
	doubleQuotedPattern = regexp.MustCompile(`^"((?:[^"\\]|\\.)*)"`)
	bareTokenPattern    = regexp.MustCompile(`^[^\s'"]\S*`)

	httpURLPattern   = regexp.MustCompile(`https?://[^\s'"]+`)
	quotedURLPattern = regexp.MustCompile(`'(https?://[^']+)'|"(https?://[^"]+)"`)
	anyURLPattern    = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.\-]*://[^\s'"]+`)

	doubleQuoteUnescaper = strings.NewReplacer(`\"`, `"`, `\\`, `\`)
)

// curlHints are the substrings that mark text as a curl invocation even
// without the leading command name.
var curlHints = []string{" -X ", " --request ", " -H ", " --header ", " -d ", " --data"}

// dataFlags lists the body flags in precedence order.
var dataFlags = []string{"--data-raw", "--data-binary", "--data", "-d"}

// LooksLikeCurl reports whether text should be treated as a curl command.
// False positives are acceptable; ParseCurl still requires a URL.
func LooksLikeCurl(text string) bool {
	text = normalizeCommand(text)
	if strings.HasPrefix(text, "curl") {
		return true
	}
	for _, hint := range curlHints {
		if strings.Contains(text, hint) {
			return true
		}
	}
	return false
}

// ParseCurl extracts a partial request from a curl command. It reports false
// when the text does not look like curl or contains no URL. defaults become
// the header list when the command carries no -H flags.
func ParseCurl(text string, defaults core.KeyValueList) (*PartialRequest, bool) {
	if !LooksLikeCurl(text) {
		return nil, false
	}

	st := &curlState{
		text:     text,
		defaults: defaults,
		result: &PartialRequest{
			Method: core.MethodGet,
			Body:   core.BodySpec{Kind: core.BodyJSON},
			Auth:   core.NoAuth{},
		},
	}
	for _, rule := range curlRules {
		if !rule(st) {
			return nil, false
		}
	}
	return st.result, true
}

// curlArgument is one flag occurrence and its value. start and end span the
// flag and value in the normalized command.
type curlArgument struct {
	flag       string
	value      string
	start, end int
}

type curlState struct {
	text     string
	defaults core.KeyValueList
	args     []curlArgument

	// masked is text with every flag value blanked out.
	masked string
	// bare is masked with the remaining quoted tokens blanked too.
	bare string

	switches       map[string]bool
	methodExplicit bool
	headerFlags    int
	result         *PartialRequest
}

func (st *curlState) values(flags ...string) []string {
	var out []string
	for _, arg := range st.args {
		for _, f := range flags {
			if arg.flag == f {
				out = append(out, arg.value)
				break
			}
		}
	}
	return out
}

// curlRule is one extraction step. Returning false abandons the parse.
type curlRule func(*curlState) bool

// curlRules run in order; each is independently optional except the URL rule.
var curlRules = []curlRule{
	normalizeRule,
	stripCommandRule,
	scanArgumentsRule,
	methodRule,
	headersRule,
	authRule,
	bodyRule,
	urlRule,
	defaultHeadersRule,
	shorthandHeadersRule,
}

func normalizeCommand(text string) string {
	text = continuationPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func normalizeRule(st *curlState) bool {
	st.text = normalizeCommand(st.text)
	return true
}

func stripCommandRule(st *curlState) bool {
	st.text = curlPrefixPattern.ReplaceAllString(st.text, "")
	return true
}

// scanArgumentsRule walks the command left to right so that a flag-like
// substring inside a value is never read as a flag.
func scanArgumentsRule(st *curlState) bool {
	masked := []byte(st.text)
	cursor := 0
	for cursor < len(st.text) {
		loc := flagPattern.FindStringSubmatchIndex(st.text[cursor:])
		if loc == nil {
			break
		}
		if end, inside := quotedSpanAround(st.text, cursor, cursor+loc[2]); inside {
			cursor = end
			continue
		}
		flag := st.text[cursor+loc[2] : cursor+loc[3]]
		valueStart := cursor + loc[1]

		value, n, ok := readArgument(st.text[valueStart:])
		if !ok {
			cursor = valueStart
			continue
		}
		arg := curlArgument{flag: flag, value: value, start: cursor + loc[2], end: valueStart + n}
		st.args = append(st.args, arg)
		if flag != "-X" && flag != "--request" {
			for i := arg.start; i < arg.end; i++ {
				masked[i] = ' '
			}
		}
		cursor = arg.end
	}
	st.masked = string(masked)
	st.bare = blankQuoted(st.masked)

	st.switches = make(map[string]bool)
	for _, token := range strings.Fields(st.bare) {
		if strings.HasPrefix(token, "-") {
			st.switches[token] = true
		}
	}
	return true
}

// quotedSpanAround reports whether pos falls inside a quoted token that
// starts between from and pos, returning the offset just past that token.
func quotedSpanAround(text string, from, pos int) (int, bool) {
	for i := from; i < pos; i++ {
		if text[i] != '\'' && text[i] != '"' {
			continue
		}
		if i > 0 && text[i-1] != ' ' {
			continue
		}
		_, n, ok := readArgument(text[i:])
		if !ok || n < 2 {
			continue
		}
		if i+n > pos {
			return i + n, true
		}
		i += n - 1
	}
	return 0, false
}

// blankQuoted replaces every quoted token of text with spaces.
func blankQuoted(text string) string {
	out := []byte(text)
	for i := 0; i < len(out); i++ {
		if (out[i] != '\'' && out[i] != '"') || (i > 0 && out[i-1] != ' ') {
			continue
		}
		_, n, ok := readArgument(text[i:])
		if !ok || n < 2 {
			continue
		}
		for j := i; j < i+n; j++ {
			out[j] = ' '
		}
		i += n - 1
	}
	return string(out)
}

// readArgument reads a quoted argument, falling back to a bare token.
// It returns the unquoted value and the number of bytes consumed.
func readArgument(s string) (string, int, bool) {
	if m := singleQuotedPattern.FindStringSubmatch(s); m != nil {
		return m[1], len(m[0]), true
	}
	if m := doubleQuotedPattern.FindStringSubmatch(s); m != nil {
		return doubleQuoteUnescaper.Replace(m[1]), len(m[0]), true
	}
	if m := bareTokenPattern.FindString(s); m != "" {
		return m, len(m), true
	}
	return "", 0, false
}

func methodRule(st *curlState) bool {
	candidates := st.values("-X", "--request")
	if m := gluedMethodPattern.FindStringSubmatch(st.bare); m != nil {
		candidates = append(candidates, m[1])
	}
	if len(candidates) == 0 {
		switch {
		case st.switches["-I"] || st.switches["--head"]:
			st.result.Method = core.MethodHead
			st.methodExplicit = true
		case st.switches["-G"] || st.switches["--get"]:
			st.methodExplicit = true
		}
		return true
	}
	if method := strings.ToUpper(candidates[0]); core.IsSupportedMethod(method) {
		st.result.Method = method
		st.methodExplicit = true
	}
	return true
}

func headersRule(st *curlState) bool {
	raw := st.values("-H", "--header")
	st.headerFlags = len(raw)

	for _, header := range raw {
		name, value, found := strings.Cut(header, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			continue
		}
		if _, dup := st.result.Headers.Lookup(name); dup {
			continue
		}
		value = stripQuotes(strings.TrimSpace(value))
		st.result.Headers.Append(name, value)

		if strings.EqualFold(name, "Authorization") {
			st.result.Auth = authFromHeader(value)
		}
	}
	return true
}

// authFromHeader recognizes Bearer and Basic credentials. Anything it cannot
// decode yields NoAuth; the header itself is kept by the caller.
func authFromHeader(value string) core.Auth {
	scheme, credentials, _ := strings.Cut(value, " ")
	credentials = strings.TrimSpace(credentials)

	switch strings.ToLower(scheme) {
	case "bearer":
		if credentials != "" {
			return core.NewBearerAuth(credentials)
		}
	case "basic":
		decoded, err := base64.StdEncoding.DecodeString(credentials)
		if err != nil {
			return core.NoAuth{}
		}
		user, pass, _ := strings.Cut(string(decoded), ":")
		return core.NewBasicAuth(user, pass)
	}
	return core.NoAuth{}
}

// authRule maps -u user:password when no Authorization header set auth.
func authRule(st *curlState) bool {
	users := st.values("-u", "--user")
	if len(users) == 0 || core.IsConfigured(st.result.Auth) {
		return true
	}
	user, pass, _ := strings.Cut(users[0], ":")
	st.result.Auth = core.NewBasicAuth(user, pass)
	return true
}

func bodyRule(st *curlState) bool {
	var (
		raw   string
		found bool
	)
	for _, flag := range dataFlags {
		if values := st.values(flag); len(values) > 0 {
			raw, found = values[0], true
			break
		}
	}

	if found {
		st.result.Body = core.BodySpec{Kind: st.bodyKind(raw), Raw: raw}
		if st.result.Body.Kind == core.BodyURLEncoded {
			st.result.Body.Raw = urlencodedToLines(raw)
		}
	} else if values := st.values("--json"); len(values) > 0 {
		st.result.Body = core.BodySpec{Kind: core.BodyJSON, Raw: values[0]}
		found = true
	} else if fields := st.values("-F", "--form"); len(fields) > 0 {
		st.result.Body = core.BodySpec{Kind: core.BodyFormData, Raw: strings.Join(fields, "\n")}
		found = true
	}

	if found && !st.methodExplicit && st.result.Method == core.MethodGet {
		st.result.Method = core.MethodPost
	}
	return true
}

func (st *curlState) bodyKind(raw string) core.BodyKind {
	if ct, ok := st.result.Headers.Lookup("Content-Type"); ok {
		return core.BodyKindForContentType(ct.Value)
	}
	if json.Valid([]byte(strings.TrimSpace(raw))) {
		return core.BodyJSON
	}
	return core.BodyText
}

// urlencodedToLines converts a=1&b=2 into the newline-delimited pair format.
func urlencodedToLines(raw string) string {
	if strings.Contains(raw, "\n") {
		return raw
	}
	var lines []string
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		key = unescapeQuery(key)
		if !found {
			lines = append(lines, key)
			continue
		}
		lines = append(lines, key+"="+unescapeQuery(value))
	}
	return strings.Join(lines, "\n")
}

func unescapeQuery(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// urlRule takes the first http(s) URL outside any flag value, falling back
// to the first URL-looking token anywhere. A quoted URL is taken whole.
func urlRule(st *curlState) bool {
	u := ""
	bare := httpURLPattern.FindStringIndex(st.masked)
	if m := quotedURLPattern.FindStringSubmatchIndex(st.masked); m != nil && (bare == nil || m[0] < bare[0]) {
		if m[2] >= 0 {
			u = st.masked[m[2]:m[3]]
		} else {
			u = st.masked[m[4]:m[5]]
		}
	} else if bare != nil {
		u = st.masked[bare[0]:bare[1]]
	}
	if u == "" {
		u = anyURLPattern.FindString(st.text)
	}
	if u == "" {
		return false
	}
	st.result.URL = u
	return true
}

func defaultHeadersRule(st *curlState) bool {
	if st.headerFlags == 0 {
		st.result.Headers = st.defaults.Duplicate()
	}
	return true
}

// shorthandHeadersRule adds the headers implied by curl's shorthand flags
// unless an explicit header of the same name exists.
func shorthandHeadersRule(st *curlState) bool {
	add := func(name, value string) {
		if _, exists := st.result.Headers.Lookup(name); !exists {
			st.result.Headers.Append(name, value)
		}
	}
	if v := st.values("-A", "--user-agent"); len(v) > 0 {
		add("User-Agent", v[0])
	}
	if v := st.values("-e", "--referer"); len(v) > 0 {
		add("Referer", v[0])
	}
	if v := st.values("-b", "--cookie"); len(v) > 0 {
		add("Cookie", v[0])
	}
	if st.switches["--compressed"] {
		add("Accept-Encoding", "gzip, deflate, br")
	}
	if len(st.values("--json")) > 0 {
		add("Content-Type", "application/json")
		add("Accept", "application/json")
	}
	return true
}

func stripQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
