// Command prism structures PDFs into outlines, indexes their sentences and
// serves related-section retrieval over HTTP.
package main

func main() {
	Execute()
}
