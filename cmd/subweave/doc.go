// Command subweave merges bilingual subtitle tracks: it aligns two subtitle
// files (or a video's embedded track and an external file) on a shared
// timeline and writes a combined SRT.
package main
