// Package render turns a trajectory into images: numbered animation
// frames, a static summary figure, and an encoded GIF or video.
//
// Frames and the summary are drawn with gonum/plot. Encoding shells out
// to ffmpeg; [NativeGIF] is an in-process fallback when ffmpeg is not
// installed.
package render
