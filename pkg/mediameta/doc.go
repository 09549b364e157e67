// Package mediameta models the format-tagged output of a media-analysis engine.
//
// The layout follows getID3's analyze() result: a "fileformat" tag plus one section per
// container family. Only the fields needed to locate a creation timestamp are modelled.
package mediameta
