// Package prompt holds the instructions given to vision-language backends.
package prompt

// LaTeX makes a general vision model behave like a LaTeX OCR model.
const LaTeX = `You are a LaTeX OCR engine. Transcribe the mathematical content of the image into LaTeX.
Return only the LaTeX source: no prose, no Markdown code fences, no surrounding $ or \[ \] delimiters.
If the image contains no mathematics, transcribe its text as LaTeX.`

// User accompanies the image in the user turn.
const User = "Transcribe this image to LaTeX."
