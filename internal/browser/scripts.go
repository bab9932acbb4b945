package browser

// Page-side helpers. Each returns the matching element or null.

const findControlJS = `(role, label, exact) => {
	const norm = (s) => (s || "").replace(/\s+/g, " ").trim();
	const want = norm(label);
	const selectors = {
		button: "button, [role='button'], input[type='submit'], input[type='button']",
		link: "a[href], [role='link']",
		text: "body *",
	};
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		const s = getComputedStyle(el);
		return r.width > 0 && r.height > 0 && s.visibility !== "hidden" && s.display !== "none";
	};
	const name = (el) => norm(el.getAttribute("aria-label") || el.innerText || el.value);
	const match = (el) => exact ? name(el) === want : name(el).includes(want);
	const all = Array.from(document.querySelectorAll(selectors[role] || "body *")).filter(visible);
	if (role === "text") {
		const hits = all.filter(match).filter((el) => !Array.from(el.children).some(match));
		return hits[0] || null;
	}
	return all.find(match) || null;
}`

const findPlusJS = `(label) => {
	const norm = (s) => (s || "").replace(/\s+/g, " ").trim();
	const want = norm(label);
	const nodes = Array.from(document.querySelectorAll("body *"))
		.filter((el) => norm(el.innerText) === want)
		.filter((el) => !Array.from(el.children).some((c) => norm(c.innerText) === want));
	if (nodes.length === 0) return null;
	const node = nodes[0];
	const parent = node.parentElement || node;
	const row = parent.closest("li") || parent.closest("tr") || parent.closest("div") || node;
	if (!norm(row.innerText).includes(want)) return null;
	const plus = Array.from(row.querySelectorAll(
		"button, [role='button']"
	)).filter((b) => {
		const text = norm(b.innerText);
		const hint = ((b.getAttribute("aria-label") || "") + " " + (b.getAttribute("title") || "")).toLowerCase();
		return text === "+" || hint.includes("erhöh") || hint.includes("erhoh") || b.querySelector("svg") !== null;
	});
	return plus.length ? plus[plus.length - 1] : null;
}`

const innerTextJS = `(selector) => {
	const el = document.querySelector(selector);
	return el ? el.innerText : null;
}`
