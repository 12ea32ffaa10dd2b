// Package imagegen talks to the keyframe image provider. One call produces one
// still image for a scene's image prompt; the bytes come back base64-encoded
// and are returned decoded.
package imagegen
