// Package analysis inspects recorded runs.
//
//   - [Summarize] and [Analyze]: descriptive statistics per snapshot field
//   - [DominantFrequency]: strongest oscillation in a series, used to estimate
//     the period of the cart's edge-to-edge sweep
//   - [PhasePortrait]: angle error against angular velocity
//   - [CartCrossings]: Poincaré section taken where the cart passes a position
//
// A run that holds the rod upright shows as a tight cluster at the origin of
// the phase portrait; a reversal shows as an excursion that spirals back in.
package analysis
