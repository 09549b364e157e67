// Package createdat determines the creation timestamp of uploaded media.
//
// Resolve holds the per-format policy for reading a timestamp out of analysis output.
// Determine and the extractors wrap it for files on an fs.FS: videos go through an
// analyzer, photos through EXIF.
package createdat
