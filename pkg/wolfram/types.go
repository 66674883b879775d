// Package wolfram turns Wolfram|Alpha full-results documents into a uniform domain model
// and talks to the service over HTTP.
//
// Every value produced by Parse is a fresh tree owned by the caller: collections are never
// nil, optional scalars are pointers, and nothing aliases the raw decoding buffers. Treat the
// values as read-only.
package wolfram

import (
	"encoding/json"
	"strings"
)

// QueryResult is the normalized answer to one query.
type QueryResult struct {
	Success       bool    `json:"success"`
	NumPods       int     `json:"num_pods"`
	DataTypes     string  `json:"datatypes"`
	TimedOut      string  `json:"timed_out"`
	TimedOutPods  string  `json:"timed_out_pods"`
	Timing        float64 `json:"timing"`
	ParseTiming   float64 `json:"parse_timing"`
	ParseTimedOut bool    `json:"parse_timed_out"`
	Recalculate   string  `json:"recalculate"`
	ID            string  `json:"id"`
	ParseIDServer *string `json:"parse_id_server,omitempty"`
	Host          string  `json:"host"`
	Server        string  `json:"server"`
	Related       string  `json:"related"`
	Version       string  `json:"version"`
	InputString   string  `json:"input_string"`

	// Error is nil when upstream reported no error.
	Error *UpstreamError `json:"error,omitempty"`

	Pods        []Pod        `json:"pods"`
	Sources     []Source     `json:"sources"`
	Assumptions []Assumption `json:"assumptions"`
}

// Pod is one titled answer card.
type Pod struct {
	Title           string           `json:"title"`
	Scanner         string           `json:"scanner_kind"`
	ID              string           `json:"id"`
	Position        int              `json:"position"`
	IsError         bool             `json:"is_error"`
	SubpodCount     int              `json:"subpod_count"`
	Subpods         []SubPod         `json:"subpods"`
	ExpressionTypes []ExpressionType `json:"expression_types"`
	States          []StateNode      `json:"states"`
	Infos           []Info           `json:"infos"`
	IsPrimary       bool             `json:"is_primary"`
	Definitions     []Definition     `json:"definitions"`
}

// SubPod is one rendered unit of content within a pod.
type SubPod struct {
	Title          string   `json:"title"`
	IsPrimary      bool     `json:"is_primary"`
	ImageSourceURL *string  `json:"image_source_url,omitempty"`
	MicroSources   []string `json:"micro_sources"`
	DataSources    []string `json:"data_sources"`
	Image          Image    `json:"image"`
	PlainText      string   `json:"plain_text"`
	Infos          []Info   `json:"infos"`
}

type Image struct {
	SourceURL       string  `json:"source_url"`
	AltText         string  `json:"alt_text"`
	Title           string  `json:"title"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Kind            *string `json:"kind,omitempty"`
	Themes          *string `json:"themes,omitempty"`
	ColorInvertible bool    `json:"color_invertible"`
	ContentType     *string `json:"content_type,omitempty"`
}

// StateNode is either a StateLeaf or a StateGroup.
type StateNode interface {
	stateNode()
}

// StateLeaf is a single state the query can be re-run with.
type StateLeaf struct {
	Name         string `json:"name"`
	InputToken   string `json:"input_token"`
	IsStepByStep bool   `json:"is_step_by_step"`
}

// StateGroup is a set of mutually exclusive states, e.g. a time range picker.
type StateGroup struct {
	OptionCount       int         `json:"option_count"`
	DefaultValueLabel string      `json:"default_value_label"`
	Delimiter         string      `json:"delimiter"`
	Children          []StateLeaf `json:"children"`
}

func (StateLeaf) stateNode()  {}
func (StateGroup) stateNode() {}

// MarshalJSON adds a "kind" field so leaves and groups can be told apart.
func (l StateLeaf) MarshalJSON() ([]byte, error) {
	type leaf StateLeaf
	return json.Marshal(struct {
		Kind string `json:"kind"`
		leaf
	}{Kind: "leaf", leaf: leaf(l)})
}

func (g StateGroup) MarshalJSON() ([]byte, error) {
	type group StateGroup
	return json.Marshal(struct {
		Kind string `json:"kind"`
		group
	}{Kind: "group", group: group(g)})
}

type Info struct {
	MeasurementUnits []MeasurementUnit `json:"measurement_units"`
	UnitIcon         *UnitIconSource   `json:"unit_icon,omitempty"`
	DescriptiveText  *string           `json:"descriptive_text,omitempty"`
	Image            *Image            `json:"image,omitempty"`
	Links            []Link            `json:"links"`
}

type MeasurementUnit struct {
	ShortLabel string `json:"short_label"`
	LongLabel  string `json:"long_label"`
}

// UnitIconSource points at the legend image for an info's units. Its dimensions are
// rendering hints and stay strings.
type UnitIconSource struct {
	IconURL string `json:"icon_url"`
	Width   string `json:"width"`
	Height  string `json:"height"`
}

type Link struct {
	URL         string  `json:"url"`
	DisplayText string  `json:"display_text"`
	Title       *string `json:"title,omitempty"`
}

type Definition struct {
	Term        string `json:"term"`
	Description string `json:"description"`
}

type ExpressionType struct {
	Name string `json:"name"`
}

// Assumption is an interpretation the service made that the caller may override.
type Assumption struct {
	Kind             string             `json:"kind"`
	Word             *string            `json:"word,omitempty"`
	Description      *string            `json:"description,omitempty"`
	CurrentSelection *string            `json:"current_selection,omitempty"`
	Template         *string            `json:"template,omitempty"`
	OptionCount      int                `json:"option_count"`
	Options          []AssumptionOption `json:"options"`
}

type AssumptionOption struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	IsValid     *BoolOrText `json:"is_valid,omitempty"`
	InputToken  string      `json:"input_token"`
}

// BoolOrText is a flag sent either as a JSON boolean or as a textual token. Tokens are kept
// verbatim, even when they spell a boolean.
type BoolOrText struct {
	Bool   bool   `json:"bool"`
	Text   string `json:"text,omitempty"`
	IsText bool   `json:"is_text,omitempty"`
}

// Truthy reads the flag as a boolean. A token counts as true only when it spells "true".
func (b *BoolOrText) Truthy() bool {
	if b == nil {
		return false
	}
	if b.IsText {
		return strings.EqualFold(strings.TrimSpace(b.Text), "true")
	}
	return b.Bool
}

// Source is a bibliography entry.
type Source struct {
	URL         string `json:"url"`
	DisplayText string `json:"display_text"`
}
