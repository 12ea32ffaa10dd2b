// Package muxer assembles the three scene clips into the final promotional
// video with an external ffmpeg subprocess, optionally burning in the
// generated subtitle track.
package muxer
