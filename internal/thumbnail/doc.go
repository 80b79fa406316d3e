// Package thumbnail extracts representative still images from uploaded
// media. Video frames are grabbed with ffmpeg at min(1s, duration/2)
// and encoded as bounded-size JPEGs; for the upload pipeline the result
// is a data URI and extraction failure is silent by contract.
package thumbnail
