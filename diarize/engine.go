package diarize

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// Minimum visual speaking confidence that counts as evidence.
	speakingFloor = 0.3

	// Confidence assigned to a visually matched attribution.
	visualMatchConfidence = 0.9

	// Fallback transcription confidence when the segment carries none.
	defaultConfidence = 0.5

	defaultExpression = "neutral"
)

// roster tracks every participant seen in visual data, in first-seen
// order, with a resolved display name.
type roster struct {
	order []string
	names map[string]string
}

// Diarize fuses transcript segments with visual observations and assigns
// a speaker, dominant expression and engagement level to every segment.
// It is deterministic given identical inputs and never mutates them.
func Diarize(segments []TranscriptSegment, observations []VisualObservation, knownNames []string) Result {
	segs := make([]TranscriptSegment, len(segments))
	copy(segs, segments)
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })

	obs := make([]VisualObservation, len(observations))
	copy(obs, observations)
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Timestamp < obs[j].Timestamp })

	r := buildRoster(obs, knownNames)
	labels := buildLabelMap(segs, obs, r)

	out := make([]DiarizedSegment, 0, len(segs))
	matched := 0
	for _, s := range segs {
		win := window(obs, s.Start, s.End)

		d := DiarizedSegment{Text: s.Text, Start: s.Start, End: s.End}
		attributeSpeaker(&d, s, win, r, labels)
		if d.VisualMatch {
			matched++
		}
		d.DominantExpression, d.ExpressionConfidence, d.ExpressionDistribution = dominantExpression(win)
		d.Engagement = segmentEngagement(win)
		out = append(out, d)
	}

	return Result{
		Segments:     out,
		Participants: aggregateParticipants(out, obs),
		Quality:      overallQuality(matched, len(out)),
		Duration:     timelineDuration(segs),
	}
}

func buildRoster(obs []VisualObservation, knownNames []string) roster {
	r := roster{names: make(map[string]string)}
	for _, o := range obs {
		if _, seen := r.names[o.ParticipantID]; !seen {
			r.order = append(r.order, o.ParticipantID)
			r.names[o.ParticipantID] = ""
		}
		if r.names[o.ParticipantID] == "" && o.ParticipantName != "" {
			r.names[o.ParticipantID] = o.ParticipantName
		}
	}

	next := 0
	synth := 0
	for _, id := range r.order {
		if r.names[id] != "" {
			continue
		}
		if next < len(knownNames) {
			r.names[id] = knownNames[next]
			next++
			continue
		}
		synth++
		r.names[id] = fmt.Sprintf("Participant %d", synth)
	}
	return r
}

// buildLabelMap resolves each raw transcript speaker label to the
// participant whose speaking evidence overlaps that label's segments the
// most. Ties go to the participant seen first in the visual stream.
func buildLabelMap(segs []TranscriptSegment, obs []VisualObservation, r roster) map[string]string {
	var labelOrder []string
	spans := make(map[string][]TranscriptSegment)
	for _, s := range segs {
		if s.SpeakerLabel == "" {
			continue
		}
		if _, ok := spans[s.SpeakerLabel]; !ok {
			labelOrder = append(labelOrder, s.SpeakerLabel)
		}
		spans[s.SpeakerLabel] = append(spans[s.SpeakerLabel], s)
	}

	out := make(map[string]string, len(labelOrder))
	for _, label := range labelOrder {
		sums := make(map[string]float64)
		for _, o := range obs {
			if !o.IsSpeaking || o.SpeakingConfidence <= speakingFloor {
				continue
			}
			for _, s := range spans[label] {
				if o.Timestamp >= s.Start && o.Timestamp <= s.End {
					sums[o.ParticipantID] += o.SpeakingConfidence
					break
				}
			}
		}
		best := ""
		bestSum := 0.0
		for _, id := range r.order {
			if sums[id] > bestSum {
				best, bestSum = id, sums[id]
			}
		}
		if best != "" {
			out[label] = best
		}
	}
	return out
}

// window returns the observations whose timestamp lies within [start, end].
func window(obs []VisualObservation, start, end float64) []VisualObservation {
	var out []VisualObservation
	for _, o := range obs {
		if o.Timestamp >= start && o.Timestamp <= end {
			out = append(out, o)
		}
	}
	return out
}

func attributeSpeaker(d *DiarizedSegment, s TranscriptSegment, win []VisualObservation, r roster, labels map[string]string) {
	var order []string
	sums := make(map[string]float64)
	for _, o := range win {
		if !o.IsSpeaking || o.SpeakingConfidence <= speakingFloor {
			continue
		}
		if _, ok := sums[o.ParticipantID]; !ok {
			order = append(order, o.ParticipantID)
		}
		sums[o.ParticipantID] += o.SpeakingConfidence
	}

	if len(order) > 0 {
		best := order[0]
		for _, id := range order[1:] {
			if sums[id] > sums[best] {
				best = id
			}
		}
		d.SpeakerID = best
		d.SpeakerName = r.names[best]
		d.Confidence = visualMatchConfidence
		d.VisualMatch = true
		return
	}

	conf := s.Confidence
	if conf == 0 {
		conf = defaultConfidence
	}

	if id, ok := labels[s.SpeakerLabel]; ok {
		d.SpeakerID = id
		d.SpeakerName = r.names[id]
		d.Confidence = conf
		return
	}

	d.SpeakerID = "unknown"
	if s.SpeakerLabel != "" {
		d.SpeakerName = s.SpeakerLabel
	} else {
		d.SpeakerName = "Unknown"
	}
	d.Confidence = conf
}

// dominantExpression picks the most frequent expression in the window
// (first-encountered wins ties) and builds the rounded, descending
// percentage distribution.
func dominantExpression(win []VisualObservation) (string, float64, []ExpressionShare) {
	if len(win) == 0 {
		return defaultExpression, defaultConfidence, []ExpressionShare{{Expression: defaultExpression, Percent: 100}}
	}

	var order []string
	counts := make(map[string]int)
	for _, o := range win {
		if _, ok := counts[o.Expression]; !ok {
			order = append(order, o.Expression)
		}
		counts[o.Expression]++
	}

	dominant := order[0]
	for _, e := range order[1:] {
		if counts[e] > counts[dominant] {
			dominant = e
		}
	}

	confSum := 0.0
	confN := 0
	for _, o := range win {
		if o.Expression == dominant {
			confSum += o.ExpressionConfidence
			confN++
		}
	}

	dist := make([]ExpressionShare, 0, len(order))
	for _, e := range order {
		dist = append(dist, ExpressionShare{
			Expression: e,
			Percent:    math.Round(float64(counts[e]) / float64(len(win)) * 100),
		})
	}
	sort.SliceStable(dist, func(i, j int) bool { return dist[i].Percent > dist[j].Percent })

	return dominant, confSum / float64(confN), dist
}

// segmentEngagement scores attentiveness over the window: gaze toward
// the camera, a non-neutral expression and speaking activity all raise
// the score, looking away lowers it. No observations means there is no
// signal either way, so the default is medium.
func segmentEngagement(win []VisualObservation) Engagement {
	if len(win) == 0 {
		return EngagementMedium
	}

	score := 0.0
	for _, o := range win {
		switch {
		case o.HeadPose == nil:
			score += 0.5
		case math.Abs(o.HeadPose.Yaw) <= 30 && math.Abs(o.HeadPose.Pitch) <= 20:
			score += 1
		default:
			score -= 1
		}
		if o.Expression != "neutral" && o.Expression != "bored" {
			score += 0.5
		}
		if o.IsSpeaking {
			score += 1
		}
	}

	avg := score / float64(len(win))
	switch {
	case avg > 1.0:
		return EngagementHigh
	case avg > 0.3:
		return EngagementMedium
	default:
		return EngagementLow
	}
}

func aggregateParticipants(segs []DiarizedSegment, obs []VisualObservation) []Participant {
	var order []string
	byID := make(map[string]*Participant)
	exprCounts := make(map[string]map[string]int)
	exprOrder := make(map[string][]string)

	for _, s := range segs {
		p, ok := byID[s.SpeakerID]
		if !ok {
			p = &Participant{ID: s.SpeakerID, Name: s.SpeakerName, Engagement: EngagementMedium}
			byID[s.SpeakerID] = p
			order = append(order, s.SpeakerID)
			exprCounts[s.SpeakerID] = make(map[string]int)
		}
		p.SpeakingTime += s.End - s.Start
		p.SegmentCount++
		p.WordCount += len(strings.Fields(s.Text))
		if _, ok := exprCounts[s.SpeakerID][s.DominantExpression]; !ok {
			exprOrder[s.SpeakerID] = append(exprOrder[s.SpeakerID], s.DominantExpression)
		}
		exprCounts[s.SpeakerID][s.DominantExpression]++
		p.ExpressionTimeline = append(p.ExpressionTimeline, ExpressionSample{
			Timestamp:  s.Start,
			Expression: s.DominantExpression,
		})
	}

	total := 0.0
	for _, id := range order {
		total += byID[id].SpeakingTime
	}

	out := make([]Participant, 0, len(order))
	for _, id := range order {
		p := byID[id]
		if total > 0 {
			p.SpeakingPercent = math.Round(p.SpeakingTime/total*1000) / 10
		}
		p.DominantExpression = mostFrequent(exprOrder[id], exprCounts[id])
		if lvl, ok := participantEngagement(id, obs); ok {
			p.Engagement = lvl
		}
		out = append(out, *p)
	}
	return out
}

func mostFrequent(order []string, counts map[string]int) string {
	if len(order) == 0 {
		return defaultExpression
	}
	best := order[0]
	for _, e := range order[1:] {
		if counts[e] > counts[best] {
			best = e
		}
	}
	return best
}

// participantEngagement grades a participant on the share of their own
// visual observations showing an expressive (neither bored nor neutral)
// face. It reports ok=false when the participant has no visual data.
func participantEngagement(id string, obs []VisualObservation) (Engagement, bool) {
	seen := 0
	expressive := 0
	for _, o := range obs {
		if o.ParticipantID != id {
			continue
		}
		seen++
		if o.Expression != "bored" && o.Expression != "neutral" {
			expressive++
		}
	}
	if seen == 0 {
		return EngagementMedium, false
	}
	ratio := float64(expressive) / float64(seen)
	switch {
	case ratio > 0.5:
		return EngagementHigh, true
	case ratio > 0.2:
		return EngagementMedium, true
	default:
		return EngagementLow, true
	}
}

func overallQuality(matched, total int) Quality {
	if total == 0 {
		return QualityLow
	}
	ratio := float64(matched) / float64(total)
	switch {
	case ratio > 0.7:
		return QualityHigh
	case ratio > 0.3:
		return QualityMedium
	default:
		return QualityLow
	}
}

func timelineDuration(segs []TranscriptSegment) float64 {
	if len(segs) == 0 {
		return 0
	}
	end := segs[0].End
	for _, s := range segs[1:] {
		if s.End > end {
			end = s.End
		}
	}
	return end - segs[0].Start
}
