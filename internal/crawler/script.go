package crawler

// registryJS is prepended to every query. It installs a per-page registry
// that hands out stable numeric handles, so the same DOM node keeps the same
// handle across sweeps while the page re-renders around it.
const registryJS = `
const af = window.__autofill || (window.__autofill = (() => {
	const ids = new WeakMap();
	const refs = new Map();
	let next = 1;

	const handle = (el) => {
		let h = ids.get(el);
		if (!h) {
			h = next++;
			ids.set(el, h);
			refs.set(h, new WeakRef(el));
		}
		return h;
	};

	const get = (h) => {
		const ref = refs.get(h);
		const el = ref && ref.deref();
		return el && el.isConnected ? el : null;
	};

	const visible = (el) => {
		if (typeof el.checkVisibility === 'function') return el.checkVisibility();
		if (el.offsetParent) return true;
		return getComputedStyle(el).position === 'fixed';
	};

	const describe = (el) => {
		const tag = el.tagName.toLowerCase();
		const data = {};
		for (const a of el.attributes) {
			if (a.name.startsWith('data-')) data[a.name] = a.value;
		}
		return {
			handle: handle(el),
			tag: tag,
			type: tag === 'input' ? el.type : (el.getAttribute('type') || ''),
			name: el.getAttribute('name') || '',
			id: el.id || '',
			role: el.getAttribute('role') || '',
			inputMode: el.getAttribute('inputmode') || '',
			autocomplete: el.getAttribute('autocomplete') || '',
			value: typeof el.value === 'string' ? el.value : '',
			checked: !!el.checked,
			disabled: el.matches(':disabled') || el.getAttribute('aria-disabled') === 'true',
			readOnly: !!el.readOnly,
			visible: visible(el),
			min: el.getAttribute('min') || '',
			max: el.getAttribute('max') || '',
			expanded: el.getAttribute('aria-expanded') === 'true',
			controls: el.getAttribute('aria-controls') || el.getAttribute('aria-owns') || '',
			data: data,
		};
	};

	return { handle, get, describe };
})());
`

const controlsJS = `(selector) => {` + registryJS + `
	return Array.from(document.querySelectorAll(selector)).map(af.describe);
}`

const refreshJS = `(h) => {` + registryJS + `
	const el = af.get(h);
	return el ? af.describe(el) : null;
}`

const radioGroupJS = `(h) => {` + registryJS + `
	const el = af.get(h);
	if (!el) return null;
	if (!el.name) return [af.describe(el)];
	return Array.from(document.querySelectorAll('input[type=radio]'))
		.filter((r) => r.name === el.name && r.form === el.form)
		.map(af.describe);
}`

const selectOptionsJS = `(h) => {` + registryJS + `
	const el = af.get(h);
	if (!el || !el.options) return null;
	return Array.from(el.options).map((o) => ({
		value: o.value,
		label: o.label,
		disabled: o.disabled,
		hidden: o.hidden,
	}));
}`

const byDOMIDJS = `(id) => {` + registryJS + `
	const el = document.getElementById(id);
	return el ? af.describe(el) : null;
}`

const descendantsJS = `(h, selector) => {` + registryJS + `
	const el = af.get(h);
	if (!el) return null;
	return Array.from(el.querySelectorAll(selector)).map(af.describe);
}`

const firstMatchJS = `(selector) => {` + registryJS + `
	const el = document.querySelector(selector);
	return el ? af.describe(el) : null;
}`

const activeElementJS = `() => {` + registryJS + `
	const el = document.activeElement;
	if (!el || el === document.body || el === document.documentElement) return null;
	return af.describe(el);
}`

const resolveJS = `(h) => {
	const af = window.__autofill;
	return af ? af.get(h) : null;
}`

// controlCountJS counts visible form controls; used to wait for hydration
const controlCountJS = `(selector) => {
	let visible = 0;
	document.querySelectorAll(selector).forEach((el) => {
		if (el.offsetParent || (el.checkVisibility && el.checkVisibility())) visible++;
	});
	return visible;
}`
