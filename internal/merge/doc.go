// Package merge combines two subtitle tracks into one bilingual sequence.
//
// Three strategies cover the source combinations: timing preservation holds
// the reference track's boundaries exactly fixed, mixed realignment recovers
// embedded/external pairs with a massive offset through a single semantic
// anchor, and enhanced alignment matches poorly synchronized external pairs
// event by event. A narrow anti-jitter pass cleans up afterwards.
package merge
