package scriptgen

import (
	"fmt"
	"strings"
)

const anchorSystemPrompt = `You are an art director for short promotional book videos.
Given a book, produce a single style anchor that every scene must follow.
Respond with JSON only, using exactly these keys:
{"palette": ["color", ...], "style_signature": "...", "tone": "...", "mood": "..."}
The palette lists 3-5 named colors. The style signature is a short phrase
describing the visual style (for example "painterly watercolor, soft light").
The tone must be a single positive word such as hopeful, warm, uplifting,
inspiring, or joyful.`

const sceneSystemPrompt = `You are a scriptwriter for 24-second book promotional videos
made of three 8-second scenes. Write one scene at a time, staying strictly inside
the provided style anchor. Respond with JSON only, using exactly these keys:
{"narration": "...", "image_prompt": "...", "motion_prompt": "...", "subtitle": "...",
 "palette": ["color", ...], "style_signature": "..."}
The narration is 1-2 spoken sentences. The image prompt describes a single still
keyframe in the anchor's style. The motion prompt describes camera and subject
movement for an 8-second clip. The subtitle is a short on-screen caption of at
most two lines. The palette and style signature must echo the anchor colors and
style actually used in this scene.`

func anchorUserPrompt(title, author, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Book title: %s\n", title)
	if author = strings.TrimSpace(author); author != "" {
		fmt.Fprintf(&b, "Author: %s\n", author)
	}
	if language = strings.TrimSpace(language); language != "" {
		fmt.Fprintf(&b, "Audience language: %s\n", language)
	}
	b.WriteString("Produce the style anchor.")
	return b.String()
}

// sceneUserPrompt renders the per-scene request. Scene roles are hook, journey,
// and promise, in that order.
func sceneUserPrompt(anchor Anchor, title, role, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Book title: %s\n", title)
	fmt.Fprintf(&b, "Scene role: %s\n", role)
	if language = strings.TrimSpace(language); language != "" {
		fmt.Fprintf(&b, "Subtitle language: %s\n", language)
	}
	fmt.Fprintf(&b, "Style signature: %s\n", anchor.StyleSignature)
	if len(anchor.Palette) > 0 {
		fmt.Fprintf(&b, "Palette: %s\n", strings.Join(anchor.Palette, ", "))
	}
	if anchor.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", anchor.Tone)
	}
	if anchor.Mood != "" {
		fmt.Fprintf(&b, "Mood: %s\n", anchor.Mood)
	}
	b.WriteString("Write this scene.")
	return b.String()
}
