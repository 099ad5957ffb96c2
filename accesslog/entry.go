// Package accesslog builds the JSON access-log entry emitted once per
// proxied request, pairing the inbound Request and composed Action with the
// eventual response status code and Location header. The shape is a fixed
// external contract consumed by downstream log pipelines, not something
// callers are expected to extend.
package accesslog

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/redirectionio/routecore/action"
	"github.com/redirectionio/routecore/requestmatch"
)

// From describes the inbound side of a logged request.
type From struct {
	RuleId    *string `json:"ruleId,omitempty"`
	URL       string  `json:"url"`
	Method    *string `json:"method,omitempty"`
	Scheme    *string `json:"scheme,omitempty"`
	Host      *string `json:"host,omitempty"`
	Referer   *string `json:"referer,omitempty"`
	UserAgent *string `json:"userAgent,omitempty"`
}

// Entry is one access-log record: the matched rule chain, the request that
// triggered it, and the response that was eventually sent.
type Entry struct {
	Code  uint16  `json:"code"`
	To    *string `json:"to,omitempty"`
	Time  uint64  `json:"time"`
	Proxy string  `json:"proxy"`
	From  From    `json:"from"`
}

// FromRequest builds an Entry from the request that was matched, the Action
// it produced, the upstream response status and headers finally sent, the
// proxy identifier, and a caller-supplied timestamp (typically unix millis).
func FromRequest(req *requestmatch.Request, act *action.Action, code uint16, responseHeaders []requestmatch.Header, proxy string, timestamp uint64) *Entry {
	var location, userAgent, referer *string

	for _, h := range req.Headers {
		switch {
		case strings.EqualFold(h.Name, "user-agent"):
			v := h.Value
			userAgent = &v
		case strings.EqualFold(h.Name, "referer"):
			v := h.Value
			referer = &v
		}
	}

	for _, h := range responseHeaders {
		if strings.EqualFold(h.Name, "location") {
			v := h.Value
			location = &v
		}
	}

	// Header filters apply in insertion order and a later "override" wins,
	// so the last contributing rule is the one whose effect is actually
	// observable in the response; that is the rule worth logging.
	var ruleId *string
	if act != nil && len(act.RuleIds) > 0 {
		v := act.RuleIds[len(act.RuleIds)-1]
		ruleId = &v
	}

	var scheme, host, method *string
	if req.Scheme != "" {
		v := req.Scheme
		scheme = &v
	}
	if req.Host != "" {
		v := req.Host
		host = &v
	}
	if req.Method != "" {
		v := req.Method
		method = &v
	}

	return &Entry{
		Code:  code,
		To:    location,
		Time:  timestamp,
		Proxy: proxy,
		From: From{
			RuleId:    ruleId,
			URL:       req.PathAndQuery,
			Method:    method,
			Scheme:    scheme,
			Host:      host,
			Referer:   referer,
			UserAgent: userAgent,
		},
	}
}

// Log emits e as a single structured line at Info level. JSON emission to
// the actual log sink is left to the caller's formatter; this only records
// the fields a human tailing logs would want, following the teacher's
// log.WithFields convention.
func (e *Entry) Log() {
	fields := log.Fields{
		"code":  e.Code,
		"proxy": e.Proxy,
		"url":   e.From.URL,
	}
	if e.To != nil {
		fields["to"] = *e.To
	}
	if e.From.RuleId != nil {
		fields["ruleId"] = *e.From.RuleId
	}
	if e.From.Method != nil {
		fields["method"] = *e.From.Method
	}
	log.WithFields(fields).Info("request matched")
}
