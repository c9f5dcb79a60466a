/*
Package scraper reduces raw HTML to the structure an audit cares about.

Passes run in a fixed order and each emits tagged segments:

	[SCRIPT] ... [/SCRIPT]   inline bodies of the first 10 scripts, up to 2000 chars each
	[META] <meta ...>        every meta tag
	[LINK] text -> href      first 50 anchors with visible text
	[FORM] ... [/FORM]       every form, full markup
	[INPUT] <input ...>      every input
	[H1] text                headings, paragraphs, buttons and labels longer than 3 chars

Sparse output (under 500 chars) is replaced by the cleaned document in a
single [HTML CONTENT] block capped at 30,000 chars. The final text never
exceeds 100,000 chars.
*/
package scraper
