package main

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Resolver decides where the session and weekly readings come from on each
// render: the cache when both entries are fresh, otherwise one API call.
type Resolver struct {
	cache   CacheStore
	tokens  TokenSource
	fetcher UsageFetcher
}

func NewResolver(cache CacheStore, tokens TokenSource, fetcher UsageFetcher) *Resolver {
	return &Resolver{cache: cache, tokens: tokens, fetcher: fetcher}
}

// Resolve never fails; missing data is reported as nil readings. Each
// external call is attempted at most once.
func (r *Resolver) Resolve(ctx context.Context) Quotas {
	session, sessionOK := r.cache.Get(KeySession)
	weekly, weeklyOK := r.cache.Get(KeyWeekly)
	if sessionOK && weeklyOK {
		return Quotas{Session: &session, Weekly: &weekly, Source: SourceCache}
	}

	token, ok := r.tokens.Token(ctx)
	if !ok {
		return Quotas{}
	}

	usage, ok := r.fetcher.Fetch(ctx, token)
	if !ok || usage == nil || (!usage.FiveHour.present() && !usage.SevenDay.present()) {
		return Quotas{}
	}

	q := Quotas{Source: SourceAPI}
	if sessionOK {
		q.Session = &session
	}
	if weeklyOK {
		q.Weekly = &weekly
	}
	if rd, ok := r.refresh(KeySession, usage.FiveHour); ok {
		q.Session = &rd
	}
	if rd, ok := r.refresh(KeyWeekly, usage.SevenDay); ok {
		q.Weekly = &rd
	}
	log.Debugf("resolver: refreshed from api (session=%v weekly=%v)", q.Session != nil, q.Weekly != nil)
	return q
}

// refresh turns a bucket from the API into a reading and caches it.
func (r *Resolver) refresh(key QuotaKey, b *UsageBucket) (QuotaReading, bool) {
	if !b.present() {
		return QuotaReading{}, false
	}
	var util float64
	if b.Utilization != nil {
		util = *b.Utilization
	}
	var resetsAt string
	if b.ResetsAt != nil {
		resetsAt = *b.ResetsAt
	}
	rd := newQuotaReading(util, resetsAt)
	r.cache.Put(key, rd)
	return rd, true
}
